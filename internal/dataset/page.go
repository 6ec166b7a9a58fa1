package dataset

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	rle "github.com/tj/go-rle"

	segeval "github.com/jamesainslie/go-segeval"
)

// record is the on-disk page format: a source image reference plus one
// run-length-encoded boolean plane per ground-truth class, grouped by
// category. []byte fields carry the RLE stream, base64 inside JSON.
type record struct {
	Image  string `json:"image"`
	Height int    `json:"height"`
	Width  int    `json:"width"`

	// Planes maps category -> class name -> RLE-encoded plane of
	// Height*Width zero/one values.
	Planes map[string]map[string][]byte `json:"planes"`

	// Counts maps category -> class name -> instance count (reporting
	// support only).
	Counts map[string]map[string]int `json:"counts,omitempty"`
}

// pageRef lazily loads one evaluation page. Construction never fails;
// enumeration-time errors are held and returned from Load so a broken
// record skips its page without touching the rest of the run.
type pageRef struct {
	id   string
	path string
	meta *segeval.ModelMeta

	rec *record
	err error
}

func (p *pageRef) ID() string { return p.id }

// Load decodes the source image into an input tensor and the ground-truth
// planes into a multi-label mask at the record's native resolution.
func (p *pageRef) Load(ctx context.Context) (*segeval.ImageTensor, *segeval.Mask, error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	imgPath := p.rec.Image
	if !filepath.IsAbs(imgPath) {
		imgPath = filepath.Join(filepath.Dir(p.path), imgPath)
	}
	tensor, err := loadImageTensor(imgPath, p.meta)
	if err != nil {
		return nil, nil, err
	}

	mask, err := p.decodeMask()
	if err != nil {
		return nil, nil, err
	}
	return tensor, mask, nil
}

func (p *pageRef) decodeMask() (*segeval.Mask, error) {
	mapping := p.meta.ClassMapping
	mask := segeval.NewMask(mapping.NumClasses(), p.rec.Height, p.rec.Width)
	npix := p.rec.Height * p.rec.Width

	for cat, classes := range p.rec.Planes {
		known := mapping[cat]
		for name, encoded := range classes {
			idx, ok := known[name]
			if !ok {
				// Unknown to the model; already reported at enumeration.
				continue
			}
			values, err := rle.DecodeInt64(encoded)
			if err != nil {
				return nil, fmt.Errorf("decoding plane %s/%s: %w", cat, name, err)
			}
			if len(values) != npix {
				return nil, fmt.Errorf("plane %s/%s has %d pixels, want %d", cat, name, len(values), npix)
			}
			plane := mask.Plane(idx)
			for i, v := range values {
				plane[i] = v != 0
			}
		}
	}
	return mask, nil
}

// loadImageTensor decodes and normalizes a page image. Fixed input
// geometry in the metadata resizes the page; channels select grayscale or
// RGB planes, values scaled to [0,1].
func loadImageTensor(path string, meta *segeval.ModelMeta) (*segeval.ImageTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	if meta.Height > 0 && meta.Width > 0 {
		b := img.Bounds()
		if b.Dy() != meta.Height || b.Dx() != meta.Width {
			img = imaging.Resize(img, meta.Width, meta.Height, imaging.Lanczos)
		}
	}

	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	t := &segeval.ImageTensor{
		Channels: meta.Channels,
		Height:   h,
		Width:    w,
		Data:     make([]float32, meta.Channels*h*w),
	}

	switch meta.Channels {
	case 1:
		gray := imaging.Grayscale(img)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				// NRGBA storage, R=G=B after Grayscale.
				t.Data[y*w+x] = float32(gray.Pix[(y*gray.Stride)+x*4]) / 255
			}
		}
	case 3:
		nrgba := imaging.Clone(img)
		plane := h * w
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				off := y*nrgba.Stride + x*4
				t.Data[0*plane+y*w+x] = float32(nrgba.Pix[off]) / 255
				t.Data[1*plane+y*w+x] = float32(nrgba.Pix[off+1]) / 255
				t.Data[2*plane+y*w+x] = float32(nrgba.Pix[off+2]) / 255
			}
		}
	default:
		return nil, fmt.Errorf("unsupported channel count %d", meta.Channels)
	}

	return t, nil
}

// EncodePlane run-length encodes one boolean plane for storage in a page
// record. The inverse of the decoding done by Load.
func EncodePlane(plane []bool) []byte {
	values := make([]int64, len(plane))
	for i, v := range plane {
		if v {
			values[i] = 1
		}
	}
	return rle.EncodeInt64(values)
}
