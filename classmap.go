package segeval

import (
	"fmt"
	"sort"
)

// ClassMapping maps a category name ("baselines", "regions", ...) to the
// classes it contains and their global class indices. Indices are unique
// across categories and index directly into heatmap and mask planes. The
// mapping is supplied by the model under evaluation and is immutable for
// the duration of a run.
type ClassMapping map[string]map[string]int

// ClassSupport counts ground-truth occurrences per class. It feeds the
// "Support" column of the report only; metric math never reads it.
// Categories missing from it report "N/A".
type ClassSupport map[string]map[string]int

// Validate checks that class indices are unique across categories and cover
// 0..NumClasses-1 without gaps.
func (m ClassMapping) Validate() error {
	seen := make(map[int]string)
	n := 0
	for cat, classes := range m {
		for name, idx := range classes {
			if idx < 0 {
				return fmt.Errorf("%w: class %s/%s has negative index %d", ErrInvalidMapping, cat, name, idx)
			}
			if prev, dup := seen[idx]; dup {
				return fmt.Errorf("%w: index %d used by both %s and %s/%s", ErrInvalidMapping, idx, prev, cat, name)
			}
			seen[idx] = cat + "/" + name
			n++
		}
	}
	for i := 0; i < n; i++ {
		if _, ok := seen[i]; !ok {
			return fmt.Errorf("%w: index %d missing from mapping of %d classes", ErrInvalidMapping, i, n)
		}
	}
	return nil
}

// NumClasses returns the total class count across all categories.
func (m ClassMapping) NumClasses() int {
	n := 0
	for _, classes := range m {
		n += len(classes)
	}
	return n
}

// Indices returns the class indices of one category, ascending. The result
// is nil for an unknown or empty category.
func (m ClassMapping) Indices(category string) []int {
	classes := m[category]
	if len(classes) == 0 {
		return nil
	}
	idxs := make([]int, 0, len(classes))
	for _, idx := range classes {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	return idxs
}

// Categories returns category names ordered by their smallest class index,
// giving the deterministic iteration order used throughout reporting.
func (m ClassMapping) Categories() []string {
	cats := make([]string, 0, len(m))
	for cat, classes := range m {
		if len(classes) == 0 {
			continue
		}
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		return m.Indices(cats[i])[0] < m.Indices(cats[j])[0]
	})
	return cats
}

// ClassName resolves a global class index to its category and class name.
func (m ClassMapping) ClassName(idx int) (category, name string, ok bool) {
	for cat, classes := range m {
		for cls, i := range classes {
			if i == idx {
				return cat, cls, true
			}
		}
	}
	return "", "", false
}
