package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	segeval "github.com/jamesainslie/go-segeval"
	"github.com/jamesainslie/go-segeval/internal/bench"
	"github.com/jamesainslie/go-segeval/internal/dataset"
)

func main() {
	var (
		modelPath    = flag.String("model", "", "Path to ONNX model file (required unless -models)")
		metaPath     = flag.String("meta", "", "Path to model metadata JSON (defaults to model path with .json)")
		manifestPath = flag.String("manifest", "", "Manifest file listing page records (required)")
		workers      = flag.Int("workers", 0, "Page workers (default: number of CPUs)")
		sweepMin     = flag.Float64("sweep-min", 0.1, "Sweep minimum threshold")
		sweepMax     = flag.Float64("sweep-max", 0.9, "Sweep maximum threshold")
		sweepStep    = flag.Float64("sweep-step", 0.1, "Sweep step size")
		models       = flag.String("models", "", "Comma-separated model paths for comparison")
	)
	flag.Parse()

	if *modelPath == "" && *models == "" {
		fmt.Fprintln(os.Stderr, "error: -model or -models required")
		flag.Usage()
		os.Exit(1)
	}
	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "error: -manifest required")
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	thresholds := bench.SweepThresholds(float32(*sweepMin), float32(*sweepMax), float32(*sweepStep))

	ctx := context.Background()

	if *models != "" {
		runModelComparison(ctx, strings.Split(*models, ","), *manifestPath, thresholds, *workers, logger)
		return
	}

	meta := *metaPath
	if meta == "" {
		meta = *modelPath + ".json"
	}
	results, err := runSweep(ctx, *modelPath, meta, *manifestPath, thresholds, *workers, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error during sweep: %v\n", err)
		os.Exit(1)
	}
	printSweep(thresholds, results)
}

func runSweep(ctx context.Context, modelPath, metaPath, manifestPath string, thresholds []float32, workers int, logger *slog.Logger) ([]bench.SweepResult, error) {
	meta, err := segeval.LoadModelMeta(metaPath)
	if err != nil {
		return nil, err
	}

	source, err := dataset.Load(manifestPath, meta, logger)
	if err != nil {
		return nil, err
	}

	sessions := workers
	if sessions <= 0 {
		sessions = 1
	}
	pred, err := segeval.NewONNXPredictor(modelPath, meta.ClassMapping.NumClasses(), sessions)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pred.Close() }()

	opts := []segeval.Option{segeval.WithLogger(logger)}
	if workers > 0 {
		opts = append(opts, segeval.WithWorkers(workers))
	}
	return bench.Sweep(ctx, pred, meta.ClassMapping, source, thresholds, opts...)
}

func printSweep(thresholds []float32, results []bench.SweepResult) {
	fmt.Println("Threshold Sweep Results")
	fmt.Println(strings.Repeat("-", 56))
	fmt.Printf("%-8s %-10s %-10s %-10s %-8s\n", "Thresh", "MeanAcc", "MeanIoU", "FreqIoU", "Pages")

	// Print sorted by threshold for readability
	for _, t := range thresholds {
		for _, r := range results {
			if r.Threshold == t {
				fmt.Printf("%-8.2f %-10.3f %-10.3f %-10.3f %-8d\n",
					r.Threshold, r.MeanAccuracy, r.MeanIoU, r.FreqIoU, r.Processed)
				break
			}
		}
	}

	fmt.Println(strings.Repeat("-", 56))
	if len(results) > 0 {
		best := results[0]
		fmt.Printf("Optimal: %.2f (Mean IoU: %.3f)\n", best.Threshold, best.MeanIoU)
	}
}

func runModelComparison(ctx context.Context, modelPaths []string, manifestPath string, thresholds []float32, workers int, logger *slog.Logger) {
	fmt.Println("Model Comparison")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-30s %-8s %-10s %-10s\n", "Model", "Thresh", "MeanIoU", "FreqIoU")

	for _, modelPath := range modelPaths {
		results, err := runSweep(ctx, modelPath, modelPath+".json", manifestPath, thresholds, workers, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error with %s: %v\n", modelPath, err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		best := results[0]
		fmt.Printf("%-30s %-8.2f %-10.3f %-10.3f\n", modelPath, best.Threshold, best.MeanIoU, best.FreqIoU)
	}
}
