package detection

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
)

// Label naming orders.
const (
	OrderDetection = "detection"
	OrderSpatial   = "spatial"
)

// DefaultMinConfidence is the confidence a detection must exceed to be kept.
const DefaultMinConfidence = 0.6

// Label is a recognized room label placed on the raster.
type Label struct {
	// Name is the synthesized room name, "Room 1", "Room 2", ...
	Name       string      `json:"name"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Anchor     image.Point `json:"anchor"`
}

// Point returns the anchor as a planar point.
func (l Label) Point() orb.Point {
	return orb.Point{float64(l.Anchor.X), float64(l.Anchor.Y)}
}

// Options controls which detections become labels and how they are named.
type Options struct {
	MinConfidence float64
	Order         string
}

// DefaultOptions keeps detections above 0.6 and names them in recognizer order.
func DefaultOptions() Options {
	return Options{
		MinConfidence: DefaultMinConfidence,
		Order:         OrderDetection,
	}
}

// Anchor returns the mean of the four corners, truncated to integers.
func Anchor(quad [4]image.Point) image.Point {
	var sx, sy int
	for _, p := range quad {
		sx += p.X
		sy += p.Y
	}
	return image.Point{X: sx / 4, Y: sy / 4}
}

// FromDetections filters raw detections and names the survivors.
//
// A detection is kept when its confidence is strictly greater than
// opts.MinConfidence and its trimmed text is not empty. Names are assigned
// 1-based over the kept detections only.
func FromDetections(dets []ocr.Detection, opts Options) []Label {
	labels := make([]Label, 0, len(dets))
	for _, d := range dets {
		text := strings.TrimSpace(d.Text)
		if d.Confidence <= opts.MinConfidence || text == "" {
			continue
		}
		labels = append(labels, Label{
			Text:       text,
			Confidence: d.Confidence,
			Anchor:     Anchor(d.Quad),
		})
	}

	if opts.Order == OrderSpatial {
		sort.SliceStable(labels, func(i, j int) bool {
			a, b := labels[i].Anchor, labels[j].Anchor
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return a.X < b.X
		})
	}

	for i := range labels {
		labels[i].Name = fmt.Sprintf("Room %d", i+1)
	}
	return labels
}

// DetectLabels runs rec over the image and converts the result to labels.
func DetectLabels(rec ocr.Recognizer, imagePath string, opts Options) ([]Label, error) {
	dets, err := rec.Recognize(imagePath)
	if err != nil {
		return nil, bperrors.NewOCRFailedError(imagePath, err)
	}
	return FromDetections(dets, opts), nil
}
