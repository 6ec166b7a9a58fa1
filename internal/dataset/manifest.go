// Package dataset loads evaluation sets: manifest files enumerating page
// records, each record pairing a source image with rasterized multi-label
// ground-truth planes. XML readers (ALTO, PageXML) live upstream; by the
// time data reaches this package it is already rasterized.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	segeval "github.com/jamesainslie/go-segeval"
)

// Manifest is an evaluation set described by a manifest file: one page
// record path per line, relative to the manifest, with blank lines and
// "#" comments ignored.
type Manifest struct {
	meta   *segeval.ModelMeta
	dir    string
	paths  []string
	logger *slog.Logger

	support segeval.ClassSupport
}

// Load reads a manifest file. The model metadata supplies the class mapping
// that ground-truth planes are matched against and the input geometry pages
// are decoded to.
func Load(path string, meta *segeval.ModelMeta, logger *slog.Logger) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	if logger == nil {
		logger = slog.Default()
	}

	m := &Manifest{
		meta:   meta,
		dir:    filepath.Dir(path),
		logger: logger,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(m.dir, line)
		}
		m.paths = append(m.paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return m, nil
}

// Len returns the number of records listed in the manifest.
func (m *Manifest) Len() int { return len(m.paths) }

// Pages enumerates the evaluation pages. Records that cannot be read or
// parsed still yield a PageRef; their failure surfaces from Load so the
// run skips them instead of aborting. Ground-truth support counts are
// tallied here, and class names the model does not know are reported once.
func (m *Manifest) Pages(ctx context.Context) ([]segeval.PageRef, error) {
	support := make(segeval.ClassSupport)
	unknown := make(map[string]struct{})

	var pages []segeval.PageRef
	for _, path := range m.paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ref := &pageRef{
			id:   pageID(path),
			path: path,
			meta: m.meta,
		}
		pages = append(pages, ref)

		rec, err := readRecord(path)
		if err != nil {
			ref.err = err
			continue
		}
		ref.rec = rec

		for cat, counts := range rec.Counts {
			classes, ok := m.meta.ClassMapping[cat]
			if !ok {
				continue
			}
			if support[cat] == nil {
				support[cat] = make(map[string]int)
			}
			for name, n := range counts {
				if _, known := classes[name]; !known {
					unknown[cat+"/"+name] = struct{}{}
					continue
				}
				support[cat][name] += n
			}
		}
	}

	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for k := range unknown {
			names = append(names, k)
		}
		sort.Strings(names)
		m.logger.Warn("test set contains class types unknown to the model",
			"classes", strings.Join(names, ", "))
	}

	m.support = support
	return pages, nil
}

// Support returns ground-truth occurrence counts gathered by Pages.
func (m *Manifest) Support() segeval.ClassSupport { return m.support }

func pageID(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func readRecord(path string) (*record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing page record: %w", err)
	}
	if rec.Image == "" {
		return nil, fmt.Errorf("page record %s has no image", path)
	}
	if rec.Height <= 0 || rec.Width <= 0 {
		return nil, fmt.Errorf("page record %s has invalid size %dx%d", path, rec.Width, rec.Height)
	}
	return &rec, nil
}
