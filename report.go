package segeval

import (
	"fmt"
	"strconv"
	"strings"
)

// MetricRow is one per-class line of the final report.
type MetricRow struct {
	Category      string
	Class         string
	PixelAccuracy float64
	IoU           float64
	// Support is the ground-truth occurrence count. HasSupport is false for
	// classes outside the ground-truth categories (rendered "N/A").
	Support    int
	HasSupport bool
}

// Report assembles computed metrics into presentation-ready rows and
// tables. No numeric computation happens here.
type Report struct {
	Metrics  *Metrics
	Rows     []MetricRow
	Overlaps []OverlapTable

	// categories preserves the mapping's category order for the summary.
	categories []string
}

// BuildReport derives the report structure from computed metrics. Rows are
// ordered by global class index, so categories appear contiguously.
func BuildReport(m *Metrics, overlaps []OverlapTable, mapping ClassMapping, support ClassSupport) *Report {
	r := &Report{
		Metrics:    m,
		Overlaps:   overlaps,
		categories: mapping.Categories(),
	}
	for _, cat := range r.categories {
		counts, hasCat := support[cat]
		for _, idx := range mapping.Indices(cat) {
			_, name, _ := mapping.ClassName(idx)
			row := MetricRow{
				Category:      cat,
				Class:         name,
				PixelAccuracy: m.ClassAccuracy[idx],
				IoU:           m.ClassIoU[idx],
			}
			if hasCat {
				row.Support = counts[name]
				row.HasSupport = true
			}
			r.Rows = append(r.Rows, row)
		}
	}
	return r
}

// Markdown renders the report in the original tool's layout: summary lines,
// one overlap table per multi-class category, then the per-class table.
// Accuracies and IoU values use 3-decimal fixed format; sentinel overlap
// cells are blank.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mean accuracy: %.3f\n", r.Metrics.MeanAccuracy)
	fmt.Fprintf(&b, "Mean Intersection / Union: %.3f\n", r.Metrics.MeanIoU)
	fmt.Fprintf(&b, "Freq Intersection / Union: %.3f\n", r.Metrics.FreqIoU)
	for _, cat := range r.categories {
		if iu, ok := r.Metrics.CategoryIoU[cat]; ok {
			fmt.Fprintf(&b, "Class-independent %s Intersection / Union: %.3f\n", cat, iu)
		}
	}

	for i := range r.Overlaps {
		t := &r.Overlaps[i]
		fmt.Fprintf(&b, "\n%s Intersection / Union Overlap\n", t.Category)
		headers := append([]string{"Source"}, t.Classes...)
		var rows [][]string
		for ri := range t.Classes {
			row := []string{t.Classes[ri]}
			for ci := range t.Classes {
				// Self cells and sentinel cells render blank.
				if v, ok := t.Cell(ri, ci); ok {
					row = append(row, fmt.Sprintf("%.3f", v))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
		b.WriteString(markdownTable(headers, rows))
	}

	b.WriteString("\nPer category metrics\n")
	headers := []string{"Category", "Class name", "Pixel Accuracy", "Intersection / Union", "Support"}
	var rows [][]string
	for _, row := range r.Rows {
		support := "N/A"
		if row.HasSupport {
			support = strconv.Itoa(row.Support)
		}
		rows = append(rows, []string{
			row.Category,
			row.Class,
			fmt.Sprintf("%.3f", row.PixelAccuracy),
			fmt.Sprintf("%.3f", row.IoU),
			support,
		})
	}
	b.WriteString(markdownTable(headers, rows))

	return b.String()
}

// markdownTable renders a pipe table with aligned columns.
func markdownTable(headers []string, rows [][]string) string {
	width := make([]int, len(headers))
	for i, h := range headers {
		width[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > width[i] {
				width[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			fmt.Fprintf(&b, " %-*s |", width[i], cell)
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	b.WriteString("|")
	for i := range headers {
		b.WriteString(strings.Repeat("-", width[i]+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
