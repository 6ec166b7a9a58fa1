package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	segeval "github.com/jamesainslie/go-segeval"
	"github.com/jamesainslie/go-segeval/internal/dataset"
)

func main() {
	modelPath := flag.String("model", "", "Path to ONNX model file")
	metaPath := flag.String("meta", "", "Path to model metadata JSON (defaults to model path with .json)")
	manifestPath := flag.String("manifest", "", "Manifest file listing page records")
	threshold := flag.Float64("threshold", segeval.DefaultThreshold, "Heatmap binarization threshold (training pipelines often use 0.3)")
	workers := flag.Int("workers", 0, "Page workers (default: number of CPUs)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	if *modelPath == "" || *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: segeval-cli -model MODEL -manifest MANIFEST [OPTIONS]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *metaPath == "" {
		*metaPath = *modelPath + ".json"
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []segeval.Option{
		segeval.WithThreshold(float32(*threshold)),
		segeval.WithLogger(logger),
	}
	if *workers > 0 {
		opts = append(opts, segeval.WithWorkers(*workers))
	}

	ev, err := segeval.New(*modelPath, *metaPath, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating evaluator: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = ev.Close() }() // Cleanup error ignored in CLI

	meta, err := segeval.LoadModelMeta(*metaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source, err := dataset.Load(*manifestPath, meta, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Evaluating %s on %d pages\n", *modelPath, source.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := ev.Run(ctx, source)
	if err != nil {
		if errors.Is(err, segeval.ErrEmptyEvaluationSet) {
			fmt.Fprintln(os.Stderr, "Error: no page could be evaluated; refusing to report")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if n := len(result.Skipped); n > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d of %d pages\n", n, n+result.Processed)
	}
	fmt.Print(result.Report().Markdown())
}
