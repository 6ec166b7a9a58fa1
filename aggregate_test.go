package segeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPages(t *testing.T) (*PageStats, *PageStats) {
	t.Helper()

	a, err := AccumulatePage(
		maskOf(t, 2, 2, []int{1, 0, 0, 0}, []int{0, 1, 0, 0}),
		maskOf(t, 2, 2, []int{1, 1, 0, 0}, []int{0, 1, 1, 0}),
		twoBaselines,
	)
	require.NoError(t, err)

	b, err := AccumulatePage(
		maskOf(t, 2, 2, []int{0, 0, 1, 1}, []int{1, 1, 1, 1}),
		maskOf(t, 2, 2, []int{0, 0, 0, 1}, []int{1, 0, 1, 0}),
		twoBaselines,
	)
	require.NoError(t, err)

	return a, b
}

func TestAggregateZeroState(t *testing.T) {
	agg := NewAggregate(twoBaselines)

	assert.Equal(t, 0, agg.Pages())
	assert.Equal(t, []float64{0, 0}, agg.Intersections)
	assert.Equal(t, 0.0, agg.Pixels)
	require.Contains(t, agg.Categories, "baselines")
	require.NotNil(t, agg.Categories["baselines"].Overlap)
}

func TestAggregateOrderIndependence(t *testing.T) {
	pa, pb := twoPages(t)

	ab := NewAggregate(twoBaselines)
	ab.Add(pa)
	ab.Add(pb)

	ba := NewAggregate(twoBaselines)
	ba.Add(pb)
	ba.Add(pa)

	assert.Equal(t, ab, ba)
	assert.Equal(t, 2, ab.Pages())
}

func TestAggregateMergeMatchesSequentialFold(t *testing.T) {
	pa, pb := twoPages(t)

	sequential := NewAggregate(twoBaselines)
	sequential.Add(pa)
	sequential.Add(pb)

	left := NewAggregate(twoBaselines)
	left.Add(pa)
	right := NewAggregate(twoBaselines)
	right.Add(pb)
	left.Merge(right)

	assert.Equal(t, sequential, left)
}

func TestAggregateAddSums(t *testing.T) {
	pa, pb := twoPages(t)

	agg := NewAggregate(twoBaselines)
	agg.Add(pa)
	agg.Add(pb)

	for c := 0; c < 2; c++ {
		assert.Equal(t, pa.Intersections[c]+pb.Intersections[c], agg.Intersections[c])
		assert.Equal(t, pa.Unions[c]+pb.Unions[c], agg.Unions[c])
		assert.Equal(t, pa.Corrects[c]+pb.Corrects[c], agg.Corrects[c])
		assert.Equal(t, pa.Positives[c]+pb.Positives[c], agg.Positives[c])
	}
	assert.Equal(t, 8.0, agg.Pixels)

	ca := agg.Categories["baselines"]
	assert.Equal(t,
		pa.Categories["baselines"].Intersection+pb.Categories["baselines"].Intersection,
		ca.Intersection)
}
