package dataset

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	segeval "github.com/jamesainslie/go-segeval"
)

var testMeta = &segeval.ModelMeta{
	ClassMapping: segeval.ClassMapping{
		"baselines": {"default": 0, "dotted": 1},
	},
	Channels: 1,
}

func writePNG(t *testing.T, path string, width, height int, shade uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func writeRecordFile(t *testing.T, dir, name string, rec record) string {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeManifest(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "eval.lst")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir,
		"# evaluation pages",
		"",
		"page_0001.rec.json",
		"  page_0002.rec.json  ",
	)

	m, err := Load(manifest, testMeta, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.lst"), testMeta, nil)
	assert.Error(t, err)
}

func TestPagesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), 2, 2, 128)

	defaultPlane := []bool{true, true, false, false}
	writeRecordFile(t, dir, "page.rec.json", record{
		Image:  "page.png",
		Height: 2,
		Width:  2,
		Planes: map[string]map[string][]byte{
			"baselines": {
				"default": EncodePlane(defaultPlane),
				"dotted":  EncodePlane([]bool{false, false, true, false}),
			},
		},
		Counts: map[string]map[string]int{
			"baselines": {"default": 2, "dotted": 1},
		},
	})
	manifest := writeManifest(t, dir, "page.rec.json")

	m, err := Load(manifest, testMeta, nil)
	require.NoError(t, err)

	pages, err := m.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "page", pages[0].ID())

	tensor, mask, err := pages[0].Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, tensor.Channels)
	assert.Equal(t, 2, tensor.Height)
	assert.Equal(t, 2, tensor.Width)
	require.Len(t, tensor.Data, 4)
	assert.InDelta(t, 128.0/255.0, float64(tensor.Data[0]), 0.01)

	assert.Equal(t, defaultPlane, mask.Plane(0))
	assert.Equal(t, []bool{false, false, true, false}, mask.Plane(1))

	support := m.Support()
	assert.Equal(t, 2, support["baselines"]["default"])
	assert.Equal(t, 1, support["baselines"]["dotted"])
}

func TestPagesBrokenRecordSkips(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), 2, 2, 200)
	writeRecordFile(t, dir, "good.rec.json", record{
		Image:  "page.png",
		Height: 2,
		Width:  2,
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rec.json"), []byte("{"), 0o644))
	manifest := writeManifest(t, dir, "good.rec.json", "broken.rec.json", "absent.rec.json")

	m, err := Load(manifest, testMeta, nil)
	require.NoError(t, err)

	pages, err := m.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)

	_, _, err = pages[0].Load(context.Background())
	assert.NoError(t, err)
	_, _, err = pages[1].Load(context.Background())
	assert.Error(t, err)
	_, _, err = pages[2].Load(context.Background())
	assert.Error(t, err)
}

func TestPagesUnknownClassCounted(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), 2, 2, 10)
	writeRecordFile(t, dir, "page.rec.json", record{
		Image:  "page.png",
		Height: 2,
		Width:  2,
		Planes: map[string]map[string][]byte{
			"baselines": {"wavy": EncodePlane([]bool{true, false, false, false})},
		},
		Counts: map[string]map[string]int{
			"baselines": {"wavy": 1, "default": 2},
		},
	})
	manifest := writeManifest(t, dir, "page.rec.json")

	m, err := Load(manifest, testMeta, nil)
	require.NoError(t, err)

	pages, err := m.Pages(context.Background())
	require.NoError(t, err)

	// Unknown classes are excluded from support and from the decoded mask.
	support := m.Support()
	assert.Equal(t, 2, support["baselines"]["default"])
	_, hasWavy := support["baselines"]["wavy"]
	assert.False(t, hasWavy)

	_, mask, err := pages[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false}, mask.Plane(0))
	assert.Equal(t, []bool{false, false, false, false}, mask.Plane(1))
}

func TestReadRecordValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		rec  record
	}{
		{"no image", record{Height: 2, Width: 2}},
		{"zero height", record{Image: "p.png", Width: 2}},
		{"zero width", record{Image: "p.png", Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRecordFile(t, dir, tt.name+".json", tt.rec)
			_, err := readRecord(path)
			assert.Error(t, err)
		})
	}
}

func TestPageIDStripsExtensions(t *testing.T) {
	assert.Equal(t, "page_0001", pageID("/data/page_0001.rec.json"))
	assert.Equal(t, "scan", pageID("scan.json"))
}

func TestEncodePlaneRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page.png"), 4, 1, 0)

	plane := []bool{true, true, true, false}
	writeRecordFile(t, dir, "page.rec.json", record{
		Image:  "page.png",
		Height: 1,
		Width:  4,
		Planes: map[string]map[string][]byte{
			"baselines": {"default": EncodePlane(plane)},
		},
	})
	manifest := writeManifest(t, dir, "page.rec.json")

	m, err := Load(manifest, testMeta, nil)
	require.NoError(t, err)
	pages, err := m.Pages(context.Background())
	require.NoError(t, err)

	_, mask, err := pages[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plane, mask.Plane(0))
}
