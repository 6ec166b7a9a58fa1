package segeval

// OverlapTable is the pairwise IoU table of one multi-class category. Row i
// holds the IoU of class i's ground truth against every other class's
// prediction. Cells numerically equal to 1 are the "no informative overlap"
// sentinel inherited from the original tool and render blank; a genuinely
// perfect overlap is indistinguishable under this convention.
type OverlapTable struct {
	Category string
	// Classes names the k rows and columns, ascending by class index.
	Classes []string
	// iou is [k][k-1]: row i skips its own column.
	iou [][]float64
}

// ComputeOverlaps builds one table per category with at least two classes,
// in the mapping's category order.
func ComputeOverlaps(a *Aggregate, eps float64) []OverlapTable {
	if eps <= 0 {
		eps = machineEpsilon
	}
	mapping := a.Mapping()
	var tables []OverlapTable
	for _, cat := range mapping.Categories() {
		idxs := mapping.Indices(cat)
		if len(idxs) < 2 {
			continue
		}
		ov := a.Categories[cat].Overlap
		k := len(idxs)
		t := OverlapTable{
			Category: cat,
			Classes:  make([]string, k),
			iou:      make([][]float64, k),
		}
		for i, idx := range idxs {
			_, name, _ := mapping.ClassName(idx)
			t.Classes[i] = name
			t.iou[i] = make([]float64, k-1)
			for j := 0; j < k-1; j++ {
				t.iou[i][j] = (ov.Intersections[i][j] + eps) / (ov.Unions[i][j] + eps)
			}
		}
		tables = append(tables, t)
	}
	return tables
}

// Cell returns the IoU of row class vs column class, both in [0, k).
// ok is false on the diagonal and for sentinel cells (value == 1), which
// render blank.
func (t *OverlapTable) Cell(row, col int) (iou float64, ok bool) {
	if row == col {
		return 0, false
	}
	j := col
	if col > row {
		j--
	}
	v := t.iou[row][j]
	if v == 1 {
		return v, false
	}
	return v, true
}

// Size returns the number of classes in the table.
func (t *OverlapTable) Size() int { return len(t.Classes) }
