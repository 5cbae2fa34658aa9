package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayPolygon is a room outline to draw, in image pixel coordinates.
type OverlayPolygon struct {
	Vertices [][2]float64
	// Room is the label name the polygon was matched to, empty if unmatched.
	Room string
}

// OverlayLabel is a recognized label anchor to draw.
type OverlayLabel struct {
	Name   string
	Text   string
	Anchor image.Point
}

// Overlay describes everything drawn on top of the blueprint raster.
type Overlay struct {
	Polygons []OverlayPolygon
	Labels   []OverlayLabel

	// UnmatchedColor is a "#RRGGBB" or "#RRGGBBAA" color for polygons with
	// no room. Defaults to grey.
	UnmatchedColor string
}

// OverlayResult contains the rendered overlay as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Rooms       int    `json:"rooms"`
}

// Palette returns n visually distinct opaque colors, evenly spaced in hue.
// The result is deterministic for a given n.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		h := float64(i) * 360 / float64(n)
		c := colorful.Hcl(h, 0.75, 0.55).Clamped()
		r, g, b := c.RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// RenderOverlay draws room outlines and label anchors on a copy of img.
//
// Each label gets a color from Palette in label order; a polygon takes the
// color of the room it was matched to. Label names are drawn next to their
// anchors with a fixed 7x13 bitmap face.
func RenderOverlay(img image.Image, ov Overlay) *image.NRGBA {
	dst := imaging.Clone(img)

	roomColors := make(map[string]color.Color, len(ov.Labels))
	palette := Palette(len(ov.Labels))
	for i, l := range ov.Labels {
		roomColors[l.Name] = palette[i]
	}

	unmatched, err := parseHexColor(ov.UnmatchedColor)
	if err != nil {
		unmatched = color.RGBA{128, 128, 128, 255}
	}

	for _, p := range ov.Polygons {
		c, ok := roomColors[p.Room]
		if !ok {
			c = unmatched
		}
		drawPolygon(dst, p.Vertices, c)
	}

	for _, l := range ov.Labels {
		c := roomColors[l.Name]
		drawMarker(dst, l.Anchor, c)
		drawText(dst, l.Anchor.X+6, l.Anchor.Y+4, l.Name, c)
	}

	return dst
}

// RenderOverlayPNG renders the overlay and returns it base64 encoded.
func RenderOverlayPNG(img image.Image, ov Overlay) (*OverlayResult, error) {
	out := RenderOverlay(img, ov)
	data, err := EncodePNG(out)
	if err != nil {
		return nil, err
	}
	b := out.Bounds()
	return &OverlayResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		Rooms:       len(ov.Labels),
	}, nil
}

// SaveImage writes img to path; the format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// maxCoord bounds vertex coordinates so a corrupt outline cannot turn a
// Bresenham walk into billions of steps.
const maxCoord = 1 << 20

func drawPolygon(img *image.NRGBA, vertices [][2]float64, c color.Color) {
	for _, v := range vertices {
		if !(math.Abs(v[0]) < maxCoord && math.Abs(v[1]) < maxCoord) {
			return
		}
	}
	n := len(vertices)
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		drawLine(img, round(a[0]), round(a[1]), round(b[0]), round(b[1]), c)
	}
}

// drawLine is Bresenham with a 2px pen.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setClipped(img, x0, y0, c)
		setClipped(img, x0+1, y0, c)
		setClipped(img, x0, y0+1, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func drawMarker(img *image.NRGBA, p image.Point, c color.Color) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			setClipped(img, p.X+dx, p.Y+dy, c)
		}
	}
}

func drawText(img *image.NRGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func setClipped(img *image.NRGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
