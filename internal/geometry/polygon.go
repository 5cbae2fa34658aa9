package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MinVertices is the smallest vertex count a room outline can have.
const MinVertices = 3

// Polygon is a closed room outline in vector-document coordinates.
//
// Area and centroid are computed once at construction; a Polygon is never
// modified afterwards.
type Polygon struct {
	points   []orb.Point
	area     float64
	centroid orb.Point
}

// NewPolygon builds a Polygon from ordered vertices. The ring is implicitly
// closed (last vertex connects back to the first); callers must not repeat
// the first vertex.
func NewPolygon(points []orb.Point) (Polygon, error) {
	if len(points) < MinVertices {
		return Polygon{}, fmt.Errorf("polygon needs at least %d vertices, got %d", MinVertices, len(points))
	}

	pts := make([]orb.Point, len(points))
	copy(pts, points)

	return Polygon{
		points:   pts,
		area:     shoelaceArea(pts),
		centroid: vertexMean(pts),
	}, nil
}

// Area returns the unsigned shoelace area in vector units squared.
// Vertex traversal direction does not affect the result.
func (p Polygon) Area() float64 {
	return p.area
}

// Centroid returns the unweighted mean of the vertices. This is the anchor
// used for label matching, not the area-weighted centroid.
func (p Polygon) Centroid() orb.Point {
	return p.centroid
}

// Points returns a copy of the polygon's vertices.
func (p Polygon) Points() []orb.Point {
	out := make([]orb.Point, len(p.points))
	copy(out, p.points)
	return out
}

// Len returns the number of vertices.
func (p Polygon) Len() int {
	return len(p.points)
}

// Bound returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bound() orb.Bound {
	return orb.MultiPoint(p.points).Bound()
}

// shoelaceArea closes the ring and lets orb compute the area. orb reports
// polygon area as non-negative regardless of winding.
func shoelaceArea(pts []orb.Point) float64 {
	ring := make(orb.Ring, 0, len(pts)+1)
	ring = append(ring, pts...)
	ring = append(ring, pts[0])
	return planar.Area(orb.Polygon{ring})
}

func vertexMean(pts []orb.Point) orb.Point {
	var sumX, sumY float64
	for _, p := range pts {
		sumX += p.X()
		sumY += p.Y()
	}
	n := float64(len(pts))
	return orb.Point{sumX / n, sumY / n}
}

// ParsePoints parses an SVG points attribute of whitespace-separated "x,y"
// pairs. Tokens that are not exactly two comma-separated numbers are
// dropped.
func ParsePoints(attr string) []orb.Point {
	fields := strings.Fields(attr)
	points := make([]orb.Point, 0, len(fields))
	for _, tok := range fields {
		parts := strings.Split(tok, ",")
		if len(parts) != 2 {
			continue
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		points = append(points, orb.Point{x, y})
	}
	return points
}
