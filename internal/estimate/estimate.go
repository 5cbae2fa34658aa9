// Package estimate converts matched room areas into material quantities.
package estimate

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Constants are the conversion factors used for every room.
type Constants struct {
	// AreaConversion turns raw vector area units into square feet.
	AreaConversion float64 `json:"area_conversion" yaml:"area_conversion"`

	// CeilingHeight is the wall height in feet.
	CeilingHeight float64 `json:"ceiling_height" yaml:"ceiling_height"`

	// PaintCoverage is square feet of wall per gallon.
	PaintCoverage float64 `json:"paint_coverage" yaml:"paint_coverage"`

	// DrywallCoverage is square feet per sheet (a 4x8 sheet is 32).
	DrywallCoverage float64 `json:"drywall_coverage" yaml:"drywall_coverage"`

	// WasteFactor is applied to floor area to get flooring to order.
	WasteFactor float64 `json:"waste_factor" yaml:"waste_factor"`
}

// DefaultConstants returns the standard residential estimating factors.
func DefaultConstants() Constants {
	return Constants{
		AreaConversion:  0.01,
		CeilingHeight:   8,
		PaintCoverage:   350,
		DrywallCoverage: 32,
		WasteFactor:     1.10,
	}
}

// Quantities are the unrounded values for one room.
type Quantities struct {
	AreaSqft      float64
	FlooringSqft  float64
	WallPerimeter float64
	WallArea      float64
	PaintGallons  float64
	DrywallSheets int
}

// RoomEstimate is one report row. Values are rounded to two decimals.
type RoomEstimate struct {
	Room          string  `json:"room"`
	AreaSqft      float64 `json:"area_sqft"`
	FlooringSqft  float64 `json:"flooring_sqft"`
	PaintGallons  float64 `json:"paint_gallons"`
	DrywallSheets int     `json:"drywall_sheets"`
}

// Totals sums every room. Each total is rounded once, after summing the
// full-precision room values.
type Totals struct {
	AreaSqft      float64 `json:"area_sqft"`
	FlooringSqft  float64 `json:"flooring_sqft"`
	PaintGallons  float64 `json:"paint_gallons"`
	DrywallSheets float64 `json:"drywall_sheets"`
}

// Report is the material estimate for one blueprint.
type Report struct {
	Blueprint string         `json:"blueprint"`
	Totals    Totals         `json:"totals"`
	Rooms     []RoomEstimate `json:"rooms"`
}

// Estimator applies a fixed set of Constants.
type Estimator struct {
	c Constants
}

// New returns an Estimator using c.
func New(c Constants) *Estimator {
	return &Estimator{c: c}
}

// Constants returns the factors the estimator was built with.
func (e *Estimator) Constants() Constants {
	return e.c
}

// Room computes quantities for a single room from its raw vector area.
//
// Walls are modelled as a square room of the same floor area.
func (e *Estimator) Room(rawArea float64) Quantities {
	q := Quantities{AreaSqft: rawArea * e.c.AreaConversion}
	q.FlooringSqft = q.AreaSqft * e.c.WasteFactor
	q.WallPerimeter = math.Sqrt(q.AreaSqft) * 4
	q.WallArea = q.WallPerimeter * e.c.CeilingHeight
	q.DrywallSheets = int(math.Ceil(q.WallArea / e.c.DrywallCoverage))
	q.PaintGallons = q.WallArea / e.c.PaintCoverage
	return q
}

// Build produces the report for a blueprint. Rows are in room-number order.
func (e *Estimator) Build(blueprint string, areas map[string]float64) *Report {
	names := make([]string, 0, len(areas))
	for name := range areas {
		names = append(names, name)
	}
	SortRoomNames(names)

	var (
		rows                       = make([]RoomEstimate, 0, len(names))
		area, flooring, paint, dry float64
	)
	for _, name := range names {
		q := e.Room(areas[name])
		rows = append(rows, RoomEstimate{
			Room:          name,
			AreaSqft:      Round2(q.AreaSqft),
			FlooringSqft:  Round2(q.FlooringSqft),
			PaintGallons:  Round2(q.PaintGallons),
			DrywallSheets: q.DrywallSheets,
		})
		area += q.AreaSqft
		flooring += q.FlooringSqft
		paint += q.PaintGallons
		dry += float64(q.DrywallSheets)
	}

	return &Report{
		Blueprint: blueprint,
		Totals: Totals{
			AreaSqft:      Round2(area),
			FlooringSqft:  Round2(flooring),
			PaintGallons:  Round2(paint),
			DrywallSheets: Round2(dry),
		},
		Rooms: rows,
	}
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortRoomNames orders names by their trailing number, so "Room 10" follows
// "Room 9". Names without a trailing number go last, in lexical order.
func SortRoomNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, okI := roomNumber(names[i])
		nj, okJ := roomNumber(names[j])
		switch {
		case okI && okJ:
			if ni != nj {
				return ni < nj
			}
			return names[i] < names[j]
		case okI != okJ:
			return okI
		default:
			return names[i] < names[j]
		}
	})
}

func roomNumber(name string) (int, bool) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}
