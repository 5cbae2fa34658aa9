// Package matching assigns room outlines to their nearest room label and
// accumulates area per room.
package matching

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/ironsheep/blueprint-estimator/internal/detection"
	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/geometry"
)

// Assignment records which label a polygon went to.
type Assignment struct {
	// Polygon is the index into the polygons passed to Match.
	Polygon  int     `json:"polygon"`
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
	Area     float64 `json:"area"`
}

// Result is the outcome of matching one blueprint.
type Result struct {
	// Areas maps a room name to the summed raw area of its polygons.
	// A name is present only if at least one polygon matched it.
	Areas       map[string]float64 `json:"areas"`
	Assignments []Assignment       `json:"assignments"`

	labels []detection.Label
}

// Names returns the matched room names in label order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Areas))
	for _, l := range r.labels {
		if _, ok := r.Areas[l.Name]; ok {
			names = append(names, l.Name)
		}
	}
	return names
}

// Nearest returns the index of the label closest to p and its distance.
// Ties go to the earliest label. index is -1 when labels is empty.
func Nearest(p orb.Point, labels []detection.Label) (index int, dist float64) {
	index = -1
	dist = math.Inf(1)
	for i, l := range labels {
		d := planar.Distance(p, l.Point())
		if d < dist {
			index, dist = i, d
		}
	}
	return index, dist
}

// Match assigns every polygon to its nearest label by centroid distance.
//
// Labels with no polygons never appear in the result. Match fails with
// NO_ROOMS_MATCHED when nothing could be assigned.
func Match(polys []geometry.Polygon, labels []detection.Label) (*Result, error) {
	res := &Result{
		Areas:       make(map[string]float64),
		Assignments: make([]Assignment, 0, len(polys)),
		labels:      labels,
	}

	for i, p := range polys {
		idx, d := Nearest(p.Centroid(), labels)
		if idx < 0 {
			break
		}
		name := labels[idx].Name
		res.Areas[name] += p.Area()
		res.Assignments = append(res.Assignments, Assignment{
			Polygon:  i,
			Label:    name,
			Distance: d,
			Area:     p.Area(),
		})
	}

	if len(res.Areas) == 0 {
		return nil, bperrors.NewNoRoomsMatchedError(len(polys), len(labels))
	}
	return res, nil
}
