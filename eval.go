package segeval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jamesainslie/go-segeval/inference"
)

// ImageTensor is a decoded page image in CHW float32 layout, values in
// [0,1], ready for the predictor.
type ImageTensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// Predictor turns a page image into a per-class confidence heatmap. The
// ONNX-backed implementation lives in the inference package; tests and
// alternative runtimes supply their own.
type Predictor interface {
	Predict(ctx context.Context, img *ImageTensor) (*Heatmap, error)
}

// PageRef identifies one evaluation page and loads its data on demand.
// Load failures skip the page; they never abort the run.
type PageRef interface {
	ID() string
	Load(ctx context.Context) (*ImageTensor, *Mask, error)
}

// Source enumerates the evaluation set.
type Source interface {
	Pages(ctx context.Context) ([]PageRef, error)
}

// SupportReporter is optionally implemented by sources that can count
// ground-truth occurrences per class. The counts fill the report's Support
// column; metric math never reads them.
type SupportReporter interface {
	Support() ClassSupport
}

// Evaluator scores a segmentation model over an evaluation set. It is safe
// for concurrent use.
type Evaluator struct {
	predictor Predictor
	mapping   ClassMapping
	cfg       config

	closer func() error
}

// New creates an Evaluator from an ONNX model and its metadata sidecar.
func New(modelPath, metaPath string, opts ...Option) (*Evaluator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	meta, err := LoadModelMeta(metaPath)
	if err != nil {
		return nil, err
	}

	pred, err := NewONNXPredictor(modelPath, meta.ClassMapping.NumClasses(), cfg.workers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	ev := &Evaluator{
		predictor: pred,
		mapping:   meta.ClassMapping,
		cfg:       cfg,
		closer:    pred.Close,
	}
	return ev, nil
}

// NewFromPredictor creates an Evaluator around an existing predictor.
func NewFromPredictor(p Predictor, mapping ClassMapping, opts ...Option) (*Evaluator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{predictor: p, mapping: mapping, cfg: cfg}, nil
}

// Mapping returns the class mapping under evaluation.
func (e *Evaluator) Mapping() ClassMapping { return e.mapping }

// Result is the outcome of one evaluation run.
type Result struct {
	Metrics  *Metrics
	Overlaps []OverlapTable

	// Processed counts pages folded into the totals; Skipped records pages
	// dropped for load or shape failures.
	Processed int
	Skipped   []PageError

	mapping ClassMapping
	support ClassSupport
}

// Report assembles the result into presentation rows and tables.
func (r *Result) Report() *Report {
	return BuildReport(r.Metrics, r.Overlaps, r.mapping, r.support)
}

// Run evaluates every page of the source. Pages are distributed over the
// configured number of workers; each worker folds into a private aggregate
// and the partials are merged once the workers join, so totals do not
// depend on scheduling order. Run returns ErrEmptyEvaluationSet when no
// page could be accumulated, and ctx.Err() when cancelled between pages.
func (e *Evaluator) Run(ctx context.Context, source Source) (*Result, error) {
	pages, err := source.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating pages: %w", err)
	}

	workers := e.cfg.workers
	if workers > len(pages) {
		workers = len(pages)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan PageRef)
	partials := make([]*Aggregate, workers)
	skipped := make([][]PageError, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			agg := NewAggregate(e.mapping)
			partials[w] = agg
			for page := range jobs {
				if err := e.evalPage(ctx, page, agg); err != nil {
					if ctx.Err() != nil {
						return
					}
					e.cfg.logger.Warn("skipping page", "page", page.ID(), "error", err)
					skipped[w] = append(skipped[w], PageError{ID: page.ID(), Err: err})
				}
			}
		}(w)
	}

feed:
	for _, page := range pages {
		select {
		case jobs <- page:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := partials[0]
	for _, p := range partials[1:] {
		total.Merge(p)
	}
	result := &Result{
		Processed: total.Pages(),
		mapping:   e.mapping,
	}
	for _, s := range skipped {
		result.Skipped = append(result.Skipped, s...)
	}

	metrics, err := ComputeMetrics(total, e.cfg.epsilon)
	if err != nil {
		return nil, err
	}
	result.Metrics = metrics
	result.Overlaps = ComputeOverlaps(total, e.cfg.epsilon)
	if sr, ok := source.(SupportReporter); ok {
		result.support = sr.Support()
	}
	return result, nil
}

// evalPage loads, predicts, binarizes and folds one page.
func (e *Evaluator) evalPage(ctx context.Context, page PageRef, agg *Aggregate) error {
	img, target, err := page.Load(ctx)
	if err != nil {
		return err
	}

	hm, err := e.predictor.Predict(ctx, img)
	if err != nil {
		return err
	}

	pred := hm.Binarize(e.cfg.threshold)
	ps, err := AccumulatePage(pred, target.ResizeTo(hm.Height, hm.Width), e.mapping)
	if err != nil {
		return err
	}
	agg.Add(ps)
	return nil
}

// Close releases the underlying inference resources, if any.
func (e *Evaluator) Close() error {
	if e.closer != nil {
		return e.closer()
	}
	return nil
}

// ONNXPredictor adapts an ONNX session pool to the Predictor interface.
// sessions bounds concurrent inference; Run's workers block on Acquire when
// it is lower than the worker count.
type ONNXPredictor struct {
	pool    *inference.Pool
	classes int
}

// NewONNXPredictor opens a session pool over a model file.
func NewONNXPredictor(modelPath string, classes, sessions int) (*ONNXPredictor, error) {
	pool, err := inference.NewPool(modelPath, sessions)
	if err != nil {
		return nil, err
	}
	return &ONNXPredictor{pool: pool, classes: classes}, nil
}

// Predict runs one page through the model.
func (p *ONNXPredictor) Predict(ctx context.Context, img *ImageTensor) (*Heatmap, error) {
	session, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.pool.Release(session)

	out, height, width, err := session.Infer(ctx, img.Data, img.Channels, img.Height, img.Width)
	if err != nil {
		return nil, err
	}
	if p.classes*height*width != len(out) {
		return nil, fmt.Errorf("heatmap has %d values, want %d classes x %d x %d", len(out), p.classes, height, width)
	}
	return &Heatmap{Classes: p.classes, Height: height, Width: width, Data: out}, nil
}

// Close releases the session pool.
func (p *ONNXPredictor) Close() error { return p.pool.Close() }
