// Package segeval scores trained page-layout segmentation models against
// ground truth. Predicted per-class confidence heatmaps are binarized,
// compared page by page with multi-label ground-truth masks, folded into a
// running aggregate, and reduced to per-class and aggregate quality metrics
// together with pairwise class-overlap tables.
//
// # Quick Start
//
//	ev, err := segeval.New("model.onnx", "model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ev.Close()
//
//	result, err := ev.Run(ctx, source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report().Markdown())
//
// # Multi-Label Semantics
//
// Classes are not mutually exclusive: a pixel may belong to several classes
// of the same category at once (overlapping baseline types, nested regions).
// All masks therefore carry one boolean plane per class, never a single
// argmax label per pixel.
//
// # Thread Safety
//
// Evaluator is safe for concurrent use. Run distributes pages over a worker
// pool; each worker folds into a private accumulator and partial aggregates
// are merged after the workers join, so totals are independent of page
// order.
package segeval
