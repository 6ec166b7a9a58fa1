package segeval

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics holds the final scalar and per-class quality figures derived from
// an aggregate.
type Metrics struct {
	// ClassAccuracy[c] = corrects[c] / totalPixels.
	ClassAccuracy []float64
	// ClassIoU[c] = (intersections[c] + eps) / (unions[c] + eps). A class
	// absent from both prediction and ground truth resolves to 1; the bias
	// is deliberate and keeps the value defined.
	ClassIoU []float64

	// MeanAccuracy and MeanIoU are unweighted macro averages over classes:
	// a rare class counts the same as one covering most of the page.
	MeanAccuracy float64
	MeanIoU      float64

	// FreqIoU weights each class's IoU by its share of ground-truth
	// positive pixels across the dataset.
	FreqIoU float64

	// CategoryIoU is the class-independent IoU of each category's
	// OR-reduction, keyed by category name.
	CategoryIoU map[string]float64

	// Pages is the number of pages that contributed to the totals.
	Pages int
}

// ComputeMetrics derives metrics from aggregated totals. It is a pure
// function of its inputs. eps <= 0 selects machine epsilon. An aggregate
// with zero folded pages yields ErrEmptyEvaluationSet: an all-zero
// aggregate would be indistinguishable from a real zero-support result.
func ComputeMetrics(a *Aggregate, eps float64) (*Metrics, error) {
	if a.Pages() == 0 {
		return nil, ErrEmptyEvaluationSet
	}
	if eps <= 0 {
		eps = machineEpsilon
	}

	n := len(a.Intersections)
	m := &Metrics{
		ClassAccuracy: make([]float64, n),
		ClassIoU:      make([]float64, n),
		CategoryIoU:   make(map[string]float64, len(a.Categories)),
		Pages:         a.Pages(),
	}

	for c := 0; c < n; c++ {
		m.ClassAccuracy[c] = a.Corrects[c] / a.Pixels
		m.ClassIoU[c] = (a.Intersections[c] + eps) / (a.Unions[c] + eps)
	}

	m.MeanAccuracy = stat.Mean(m.ClassAccuracy, nil)
	m.MeanIoU = stat.Mean(m.ClassIoU, nil)

	if total := floats.Sum(a.Positives); total > 0 {
		for c := 0; c < n; c++ {
			m.FreqIoU += a.Positives[c] / total * m.ClassIoU[c]
		}
	}

	for cat, ca := range a.Categories {
		m.CategoryIoU[cat] = (ca.Intersection + eps) / (ca.Union + eps)
	}

	return m, nil
}
