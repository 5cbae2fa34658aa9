package geometry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
)

// ViewBox is the user coordinate system declared on the root svg element.
type ViewBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is the result of parsing a vector floor plan.
type Document struct {
	// Polygons are the room outlines that survived point filtering,
	// in document order.
	Polygons []Polygon

	// Skipped counts polygon elements discarded for having no points
	// attribute or fewer than three valid points.
	Skipped int

	// ViewBox is set when the root element declares one.
	ViewBox *ViewBox

	// Width and Height are the root element's declared size in pixels,
	// zero when absent or not expressed in pixels.
	Width  float64
	Height float64

	// Truncated is set when the input ended inside an open element. The
	// polygons read before that point are kept.
	Truncated bool
}

// Extent returns the drawing size in user units: the viewBox size when
// declared, otherwise the width/height attributes. ok is false when the
// document declares neither.
func (d *Document) Extent() (w, h float64, ok bool) {
	if d.ViewBox != nil && d.ViewBox.Width > 0 && d.ViewBox.Height > 0 {
		return d.ViewBox.Width, d.ViewBox.Height, true
	}
	if d.Width > 0 && d.Height > 0 {
		return d.Width, d.Height, true
	}
	return 0, 0, false
}

// ParseFile opens and parses the vector document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector document: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, bperrors.NewInvalidGeometryError(path, err)
	}
	return doc, nil
}

// Parse reads an SVG document and collects every polygon element at any
// depth. Namespace prefixes are ignored; only local names are matched.
//
// Input that stops short after the root element has been read is not an
// error: the document is marked Truncated and keeps what was collected.
// Other syntax errors are.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	doc := &Document{}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if sawRoot && unexpectedEOF(err) {
			doc.Truncated = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !sawRoot {
			sawRoot = true
			if start.Name.Local == "svg" {
				readRootAttrs(doc, start)
			}
		}

		if start.Name.Local != "polygon" {
			continue
		}

		points := ParsePoints(attr(start, "points"))
		poly, err := NewPolygon(points)
		if err != nil {
			doc.Skipped++
			continue
		}
		doc.Polygons = append(doc.Polygons, poly)
	}

	return doc, nil
}

// unexpectedEOF reports whether err means the input ended mid-document.
func unexpectedEOF(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var se *xml.SyntaxError
	return errors.As(err, &se) && se.Msg == "unexpected EOF"
}

func readRootAttrs(doc *Document, start xml.StartElement) {
	if vb, ok := parseViewBox(attr(start, "viewBox")); ok {
		doc.ViewBox = &vb
	}
	doc.Width = parseLength(attr(start, "width"))
	doc.Height = parseLength(attr(start, "height"))
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// parseViewBox parses "min-x min-y width height", comma or space separated.
func parseViewBox(s string) (ViewBox, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, false
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, false
		}
		v[i] = n
	}
	return ViewBox{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}, true
}

// parseLength accepts a unitless number or a "px" length. Anything else
// (percentages, physical units) yields 0.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
