// Package bench sweeps binarization thresholds over an evaluation set to
// locate the operating point of a segmentation model. Training and
// inference pipelines binarize heatmaps at different confidences, so the
// best reporting threshold is an empirical question.
package bench

import (
	"context"
	"sort"

	segeval "github.com/jamesainslie/go-segeval"
)

// SweepResult holds the headline metrics for one threshold value.
type SweepResult struct {
	Threshold    float32
	MeanAccuracy float64
	MeanIoU      float64
	FreqIoU      float64
	Processed    int
	Skipped      int
}

// SweepThresholds generates threshold values from min to max with given step.
func SweepThresholds(min, max, step float32) []float32 {
	var thresholds []float32
	for t := min; t < max; t += step {
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Sweep evaluates the source at each threshold and returns results sorted
// by mean IoU, best first. The predictor is shared across runs: inference
// sessions are expensive, re-thresholding is not.
func Sweep(ctx context.Context, pred segeval.Predictor, mapping segeval.ClassMapping, source segeval.Source, thresholds []float32, opts ...segeval.Option) ([]SweepResult, error) {
	var results []SweepResult

	for _, threshold := range thresholds {
		runOpts := append(append([]segeval.Option{}, opts...), segeval.WithThreshold(threshold))
		ev, err := segeval.NewFromPredictor(pred, mapping, runOpts...)
		if err != nil {
			return nil, err
		}

		res, err := ev.Run(ctx, source)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			Threshold:    threshold,
			MeanAccuracy: res.Metrics.MeanAccuracy,
			MeanIoU:      res.Metrics.MeanIoU,
			FreqIoU:      res.Metrics.FreqIoU,
			Processed:    res.Processed,
			Skipped:      len(res.Skipped),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].MeanIoU > results[j].MeanIoU
	})

	return results, nil
}
