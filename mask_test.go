package segeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapBinarize(t *testing.T) {
	hm := NewHeatmap(1, 1, 4)
	hm.Data = []float32{0.49, 0.5, 0.51, 1.0}

	mask := hm.Binarize(0.5)

	// Equality with the threshold counts as absent; only strict excess is
	// present.
	want := []bool{false, false, true, true}
	assert.Equal(t, want, mask.Plane(0))
}

func TestHeatmapBinarizeMultiLabel(t *testing.T) {
	hm := NewHeatmap(2, 1, 2)
	hm.Data = []float32{
		0.9, 0.1, // class 0
		0.8, 0.2, // class 1
	}

	mask := hm.Binarize(0.5)

	// Both classes may claim the same pixel.
	assert.True(t, mask.At(0, 0, 0))
	assert.True(t, mask.At(1, 0, 0))
	assert.False(t, mask.At(0, 0, 1))
	assert.False(t, mask.At(1, 0, 1))
}

func TestMaskResizeToIdentity(t *testing.T) {
	m := NewMask(1, 2, 2)
	m.Set(0, 0, 0, true)

	got := m.ResizeTo(2, 2)
	assert.Same(t, m, got)
}

func TestMaskResizeToDownscale(t *testing.T) {
	// A fully set 4x4 plane stays set after halving; an empty one stays
	// empty.
	m := NewMask(2, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.Set(0, y, x, true)
		}
	}

	got := m.ResizeTo(2, 2)
	require.Equal(t, 2, got.Height)
	require.Equal(t, 2, got.Width)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.True(t, got.At(0, y, x))
			assert.False(t, got.At(1, y, x))
		}
	}
}

func TestMaskResizeToUpscale(t *testing.T) {
	m := NewMask(1, 1, 2)
	m.Set(0, 0, 0, true)

	got := m.ResizeTo(2, 4)
	require.Equal(t, 8, got.Pixels())

	// The set half of the row expands, the unset half stays clear.
	assert.True(t, got.At(0, 0, 0))
	assert.True(t, got.At(0, 1, 0))
	assert.False(t, got.At(0, 0, 3))
	assert.False(t, got.At(0, 1, 3))
}
