package segeval

import "fmt"

// PageStats holds the raw counts extracted from a single page. It is
// produced by AccumulatePage, folded into an Aggregate, and discarded.
type PageStats struct {
	// Per-class counts, indexed by global class index.
	Intersections []float64
	Unions        []float64
	Corrects      []float64
	Positives     []float64

	// Pixels is the pixel count of this page's comparison grid.
	Pixels float64

	// Categories holds the OR-reduced and pairwise counts per category.
	Categories map[string]CategoryStats
}

// CategoryStats holds class-agnostic counts for one category: the
// intersection and union of the OR-reduction over all its classes ("is any
// class of this category present at this pixel"), plus pairwise overlap
// counts when the category has at least two classes.
type CategoryStats struct {
	Intersection float64
	Union        float64

	// Overlap is nil for single-class categories.
	Overlap *OverlapStats
}

// OverlapStats holds, for a category with k classes, a [k][k-1] matrix of
// counts: row i compares the ground truth of class idxs[i] against the
// prediction of every other class of the category, in ascending index
// order with the row class skipped.
type OverlapStats struct {
	Intersections [][]float64
	Unions        [][]float64
}

// AccumulatePage computes one page's statistics from a binarized prediction
// and a ground-truth mask of identical shape. It has no side effects.
func AccumulatePage(pred, target *Mask, mapping ClassMapping) (*PageStats, error) {
	if !sameShape(pred, target) {
		return nil, fmt.Errorf("%w: pred %s, target %s", ErrShapeMismatch, shapeString(pred), shapeString(target))
	}
	if n := mapping.NumClasses(); n != pred.Classes {
		return nil, fmt.Errorf("%w: mapping has %d classes, masks have %d", ErrInvalidMapping, n, pred.Classes)
	}

	n := pred.Classes
	ps := &PageStats{
		Intersections: make([]float64, n),
		Unions:        make([]float64, n),
		Corrects:      make([]float64, n),
		Positives:     make([]float64, n),
		Pixels:        float64(pred.Pixels()),
		Categories:    make(map[string]CategoryStats),
	}

	for c := 0; c < n; c++ {
		p, t := pred.Plane(c), target.Plane(c)
		var inter, union, correct, pos int
		for i, tv := range t {
			pv := p[i]
			if tv && pv {
				inter++
			}
			if tv || pv {
				union++
			}
			if tv == pv {
				correct++
			}
			if tv {
				pos++
			}
		}
		ps.Intersections[c] = float64(inter)
		ps.Unions[c] = float64(union)
		ps.Corrects[c] = float64(correct)
		ps.Positives[c] = float64(pos)
	}

	for _, cat := range mapping.Categories() {
		idxs := mapping.Indices(cat)
		cs := CategoryStats{}
		cs.Intersection, cs.Union = reducedCounts(pred, target, idxs)
		if len(idxs) > 1 {
			cs.Overlap = pairwiseCounts(pred, target, idxs)
		}
		ps.Categories[cat] = cs
	}

	return ps, nil
}

// reducedCounts ORs the planes of idxs on each side and counts the
// intersection and union of the two reduced planes.
func reducedCounts(pred, target *Mask, idxs []int) (inter, union float64) {
	npix := pred.Pixels()
	var i, u int
	for px := 0; px < npix; px++ {
		var pAny, tAny bool
		for _, c := range idxs {
			if pred.planes[c][px] {
				pAny = true
			}
			if target.planes[c][px] {
				tAny = true
			}
			if pAny && tAny {
				break
			}
		}
		if pAny && tAny {
			i++
		}
		if pAny || tAny {
			u++
		}
	}
	return float64(i), float64(u)
}

// pairwiseCounts compares each class's ground truth with every other
// class's prediction inside one category.
func pairwiseCounts(pred, target *Mask, idxs []int) *OverlapStats {
	k := len(idxs)
	ov := &OverlapStats{
		Intersections: make([][]float64, k),
		Unions:        make([][]float64, k),
	}
	for ri, row := range idxs {
		ov.Intersections[ri] = make([]float64, 0, k-1)
		ov.Unions[ri] = make([]float64, 0, k-1)
		t := target.Plane(row)
		for _, col := range idxs {
			if col == row {
				continue
			}
			p := pred.Plane(col)
			var inter, union int
			for i, tv := range t {
				pv := p[i]
				if tv && pv {
					inter++
				}
				if tv || pv {
					union++
				}
			}
			ov.Intersections[ri] = append(ov.Intersections[ri], float64(inter))
			ov.Unions[ri] = append(ov.Unions[ri], float64(union))
		}
	}
	return ov
}
