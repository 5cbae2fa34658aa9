// Package report renders an estimate in the formats the CLI and server offer.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ironsheep/blueprint-estimator/internal/estimate"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatHTML, FormatPDF}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias
// for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// MimeType returns the content type for f.
func (f Format) MimeType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown"
	case FormatHTML:
		return "text/html"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Binary reports whether f produces non-text output.
func (f Format) Binary() bool {
	return f == FormatPDF
}

// Render writes r to w in format f.
func Render(w io.Writer, r *estimate.Report, f Format) error {
	switch f {
	case FormatJSON:
		return JSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatHTML:
		return HTML(w, r)
	case FormatPDF:
		return PDF(w, r)
	}
	return fmt.Errorf("unknown report format %q", f)
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r *estimate.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

var columns = []string{"Room", "Area (sq ft)", "Flooring (sq ft)", "Paint (gal)", "Drywall (sheets)"}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func rowCells(room estimate.RoomEstimate) []string {
	return []string{room.Room, num(room.AreaSqft), num(room.FlooringSqft), num(room.PaintGallons), strconv.Itoa(room.DrywallSheets)}
}

func totalCells(t estimate.Totals) []string {
	return []string{"Total", num(t.AreaSqft), num(t.FlooringSqft), num(t.PaintGallons), strconv.FormatFloat(t.DrywallSheets, 'f', -1, 64)}
}

// Markdown returns r as a heading and a room table with a totals row.
func Markdown(r *estimate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Blueprint estimate: %s\n\n", mdEscape(r.Blueprint))

	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|:---|---:|---:|---:|---:|\n")
	for _, room := range r.Rooms {
		cells := rowCells(room)
		cells[0] = mdEscape(cells[0])
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	totals := totalCells(r.Totals)
	for i := range totals {
		totals[i] = "**" + totals[i] + "**"
	}
	b.WriteString("| " + strings.Join(totals, " | ") + " |\n")
	return b.String()
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "\n", " ").Replace(s)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Blueprint estimate: {{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.8rem; }
</style>
</head>
<body>
{{.Body}}</body>
</html>
`))

// HTML writes r as a standalone page. The table is the Markdown rendering
// converted by goldmark; raw HTML in room names is not passed through.
func HTML(w io.Writer, r *estimate.Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &body); err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{r.Blueprint, template.HTML(body.String())})
}

// PDF writes r as a one-page A4 table.
func PDF(w io.Writer, r *estimate.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Blueprint estimate: "+r.Blueprint, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Blueprint estimate: "+r.Blueprint), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{50, 32, 36, 30, 36}
	line := func(cells []string, fill bool) {
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 8, tr(c), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	line(columns, true)

	pdf.SetFont("Helvetica", "", 10)
	for _, room := range r.Rooms {
		line(rowCells(room), false)
	}

	pdf.SetFont("Helvetica", "B", 10)
	line(totalCells(r.Totals), true)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}
