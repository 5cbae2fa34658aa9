package pipeline

import (
	"image"

	"github.com/ironsheep/blueprint-estimator/internal/imaging"
)

// Overlay describes the polygons and labels of res for drawing.
// Polygons that were never assigned keep an empty room.
func (res *Result) Overlay() imaging.Overlay {
	ov := imaging.Overlay{}
	if res.Document == nil {
		return ov
	}

	rooms := make(map[int]string)
	if res.Match != nil {
		for _, a := range res.Match.Assignments {
			rooms[a.Polygon] = a.Label
		}
	}

	for i, poly := range res.Document.Polygons {
		pts := poly.Points()
		verts := make([][2]float64, len(pts))
		for j, pt := range pts {
			verts[j] = [2]float64{pt[0], pt[1]}
		}
		ov.Polygons = append(ov.Polygons, imaging.OverlayPolygon{Vertices: verts, Room: rooms[i]})
	}

	for _, l := range res.Labels {
		ov.Labels = append(ov.Labels, imaging.OverlayLabel{Name: l.Name, Text: l.Text, Anchor: l.Anchor})
	}
	return ov
}

// RenderOverlay draws res on top of img.
func RenderOverlay(img image.Image, res *Result) *image.NRGBA {
	return imaging.RenderOverlay(img, res.Overlay())
}

// SaveOverlay loads the run's raster, draws the overlay and writes it to path.
func SaveOverlay(res *Result, path string) error {
	img, err := imaging.LoadImage(res.Inputs.ImagePath)
	if err != nil {
		return err
	}
	return imaging.SaveImage(RenderOverlay(img, res), path)
}
