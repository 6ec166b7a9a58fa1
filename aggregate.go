package segeval

import "gonum.org/v1/gonum/floats"

// Aggregate is the elementwise sum of every PageStats folded so far. Folding
// is associative and commutative, so any partition of a page set over
// workers merges to the same totals. The zero counts of a fresh Aggregate
// are the identity.
type Aggregate struct {
	mapping ClassMapping

	Intersections []float64
	Unions        []float64
	Corrects      []float64
	Positives     []float64
	Pixels        float64
	Categories    map[string]*CategoryAggregate

	pages int
}

// CategoryAggregate mirrors CategoryStats across pages.
type CategoryAggregate struct {
	Intersection float64
	Union        float64
	Overlap      *OverlapStats
}

// NewAggregate returns the all-zero aggregate for a class mapping. The class
// index space and the category set are fixed here and never change mid-run.
func NewAggregate(mapping ClassMapping) *Aggregate {
	n := mapping.NumClasses()
	a := &Aggregate{
		mapping:       mapping,
		Intersections: make([]float64, n),
		Unions:        make([]float64, n),
		Corrects:      make([]float64, n),
		Positives:     make([]float64, n),
		Categories:    make(map[string]*CategoryAggregate),
	}
	for _, cat := range mapping.Categories() {
		ca := &CategoryAggregate{}
		if k := len(mapping.Indices(cat)); k > 1 {
			ca.Overlap = zeroOverlap(k)
		}
		a.Categories[cat] = ca
	}
	return a
}

func zeroOverlap(k int) *OverlapStats {
	ov := &OverlapStats{
		Intersections: make([][]float64, k),
		Unions:        make([][]float64, k),
	}
	for i := range ov.Intersections {
		ov.Intersections[i] = make([]float64, k-1)
		ov.Unions[i] = make([]float64, k-1)
	}
	return ov
}

// Add folds one page into the running totals.
func (a *Aggregate) Add(ps *PageStats) {
	floats.Add(a.Intersections, ps.Intersections)
	floats.Add(a.Unions, ps.Unions)
	floats.Add(a.Corrects, ps.Corrects)
	floats.Add(a.Positives, ps.Positives)
	a.Pixels += ps.Pixels
	for cat, cs := range ps.Categories {
		ca := a.Categories[cat]
		ca.Intersection += cs.Intersection
		ca.Union += cs.Union
		if cs.Overlap != nil {
			addOverlap(ca.Overlap, cs.Overlap)
		}
	}
	a.pages++
}

// Merge folds another aggregate into this one. Used to combine the private
// per-worker accumulators after a parallel run.
func (a *Aggregate) Merge(b *Aggregate) {
	floats.Add(a.Intersections, b.Intersections)
	floats.Add(a.Unions, b.Unions)
	floats.Add(a.Corrects, b.Corrects)
	floats.Add(a.Positives, b.Positives)
	a.Pixels += b.Pixels
	for cat, cb := range b.Categories {
		ca := a.Categories[cat]
		ca.Intersection += cb.Intersection
		ca.Union += cb.Union
		if cb.Overlap != nil {
			addOverlap(ca.Overlap, cb.Overlap)
		}
	}
	a.pages += b.pages
}

func addOverlap(dst, src *OverlapStats) {
	for i := range dst.Intersections {
		floats.Add(dst.Intersections[i], src.Intersections[i])
		floats.Add(dst.Unions[i], src.Unions[i])
	}
}

// Pages returns the number of pages folded so far.
func (a *Aggregate) Pages() int { return a.pages }

// Mapping returns the class mapping the aggregate was built for.
func (a *Aggregate) Mapping() ClassMapping { return a.mapping }
