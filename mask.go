package segeval

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Heatmap is a per-class confidence tensor in CHW layout, values
// semantically in [0,1]. It is what the predictor returns for one page.
type Heatmap struct {
	Classes int
	Height  int
	Width   int
	Data    []float32
}

// NewHeatmap allocates a zero heatmap.
func NewHeatmap(classes, height, width int) *Heatmap {
	return &Heatmap{
		Classes: classes,
		Height:  height,
		Width:   width,
		Data:    make([]float32, classes*height*width),
	}
}

// At returns the confidence for class c at (y, x).
func (h *Heatmap) At(c, y, x int) float32 {
	return h.Data[(c*h.Height+y)*h.Width+x]
}

// Binarize thresholds the heatmap into a multi-label mask. A pixel-class
// pair is present iff its confidence strictly exceeds the threshold;
// equality counts as absent.
func (h *Heatmap) Binarize(threshold float32) *Mask {
	m := NewMask(h.Classes, h.Height, h.Width)
	n := h.Height * h.Width
	for c := 0; c < h.Classes; c++ {
		plane := h.Data[c*n : (c+1)*n]
		out := m.planes[c]
		for i, v := range plane {
			if v > threshold {
				out[i] = true
			}
		}
	}
	return m
}

// Mask holds one boolean plane per class over a shared pixel grid. Planes
// are independent: a pixel may be set in several classes at once.
type Mask struct {
	Classes int
	Height  int
	Width   int
	planes  [][]bool
}

// NewMask allocates an all-false mask.
func NewMask(classes, height, width int) *Mask {
	planes := make([][]bool, classes)
	for c := range planes {
		planes[c] = make([]bool, height*width)
	}
	return &Mask{Classes: classes, Height: height, Width: width, planes: planes}
}

// Pixels returns the number of pixels per plane.
func (m *Mask) Pixels() int { return m.Height * m.Width }

// Plane returns the flattened boolean plane of class c. The slice aliases
// the mask's storage.
func (m *Mask) Plane(c int) []bool { return m.planes[c] }

// Set marks class c at (y, x).
func (m *Mask) Set(c, y, x int, v bool) {
	m.planes[c][y*m.Width+x] = v
}

// At reports class c at (y, x).
func (m *Mask) At(c, y, x int) bool {
	return m.planes[c][y*m.Width+x]
}

// ResizeTo resamples every plane to height x width using area-preserving
// (box) interpolation, then re-binarizes at half occupancy. Ground truth is
// rasterized at source resolution and must be brought to the prediction's
// grid before comparison.
func (m *Mask) ResizeTo(height, width int) *Mask {
	if height == m.Height && width == m.Width {
		return m
	}
	out := NewMask(m.Classes, height, width)
	for c := 0; c < m.Classes; c++ {
		src := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
		for i, v := range m.planes[c] {
			if v {
				src.Pix[i] = 0xff
			}
		}
		dst := imaging.Resize(src, width, height, imaging.Box)
		plane := out.planes[c]
		for i := range plane {
			// NRGBA output, 4 bytes per pixel; gray input keeps R == value.
			plane[i] = dst.Pix[i*4] >= 0x80
		}
	}
	return out
}

// sameShape reports whether two masks agree on every dimension.
func sameShape(a, b *Mask) bool {
	return a.Classes == b.Classes && a.Height == b.Height && a.Width == b.Width
}

func shapeString(m *Mask) string {
	return fmt.Sprintf("[%d x %d x %d]", m.Classes, m.Height, m.Width)
}
