package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ironsheep/blueprint-estimator/internal/config"
	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/estimate"
	"github.com/ironsheep/blueprint-estimator/internal/imaging"
	"github.com/ironsheep/blueprint-estimator/internal/logging"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
)

const floorPlanSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300" width="400" height="300">
  <polygon points="0,0 100,0 100,100 0,100"/>
  <g id="annex">
    <polygon points="100,0 200,0 200,100 100,100"/>
  </g>
  <polygon points="300,200 320,200 320,210 300,210"/>
  <polygon points="1,1 2,2"/>
</svg>`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

// writeBlueprint creates <tmp>/house-42 with model.svg and a scaled PNG.
func writeBlueprint(t *testing.T, svg string, imgW, imgH int) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "house-42")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, GeometryFile), []byte(svg), 0644); err != nil {
		t.Fatalf("write svg: %v", err)
	}
	writePNG(t, filepath.Join(dir, "plan_scaled.png"), imgW, imgH)
	return dir
}

func fakeRecognizer(dets ...ocr.Detection) ocr.Recognizer {
	return ocr.RecognizerFunc(func(string) ([]ocr.Detection, error) {
		return dets, nil
	})
}

func roomLabels() ocr.Recognizer {
	return fakeRecognizer(
		ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(90, 45, 110, 55)), Text: "Living", Confidence: 0.93},
		ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(0, 280, 50, 290)), Text: "~", Confidence: 0.30},
		ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(300, 195, 320, 205)), Text: "WC", Confidence: 0.88},
	)
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{GeometryFile, "b_scaled.png", "a_SCALED.jpg", "._a_scaled.png", "scaled.txt", "plan.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0_scaled.png"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	in, err := ResolveInputs(dir)
	if err != nil {
		t.Fatalf("ResolveInputs failed: %v", err)
	}
	if got := filepath.Base(in.ImagePath); got != "a_SCALED.jpg" {
		t.Errorf("image: got %s, want a_SCALED.jpg", got)
	}
	if in.VectorPath != filepath.Join(dir, GeometryFile) {
		t.Errorf("vector: got %s", in.VectorPath)
	}
	if in.Blueprint != filepath.Base(dir) {
		t.Errorf("blueprint: got %s", in.Blueprint)
	}
}

func TestResolveInputs_Missing(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantKind string
	}{
		{"no geometry", []string{"plan_scaled.png"}, "geometry"},
		{"no image", []string{GeometryFile, "plan.png"}, "image"},
		{"only resource fork image", []string{GeometryFile, "._plan_scaled.png"}, "image"},
		{"empty folder", nil, "geometry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}

			_, err := ResolveInputs(dir)
			if !errors.Is(err, bperrors.ErrMissingInput) {
				t.Fatalf("expected MISSING_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), "missing required "+tt.wantKind+" file") {
				t.Errorf("message: got %q", err.Error())
			}
		})
	}
}

func TestPipeline_ProduceReport(t *testing.T) {
	dir := writeBlueprint(t, floorPlanSVG, 400, 300)
	p := New(config.Default(), roomLabels(), nil)

	report, err := p.ProduceReport(dir)
	if err != nil {
		t.Fatalf("ProduceReport failed: %v", err)
	}

	if report.Blueprint != "house-42" {
		t.Errorf("blueprint: got %q", report.Blueprint)
	}

	want := []estimate.RoomEstimate{
		{Room: "Room 1", AreaSqft: 200, FlooringSqft: 220, PaintGallons: 1.29, DrywallSheets: 15},
		{Room: "Room 2", AreaSqft: 2, FlooringSqft: 2.2, PaintGallons: 0.13, DrywallSheets: 2},
	}
	if len(report.Rooms) != len(want) {
		t.Fatalf("rooms: got %+v", report.Rooms)
	}
	for i := range want {
		if report.Rooms[i] != want[i] {
			t.Errorf("room %d: got %+v, want %+v", i, report.Rooms[i], want[i])
		}
	}

	wantTotals := estimate.Totals{AreaSqft: 202, FlooringSqft: 222.2, PaintGallons: 1.42, DrywallSheets: 17}
	if report.Totals != wantTotals {
		t.Errorf("totals: got %+v, want %+v", report.Totals, wantTotals)
	}
}

func TestPipeline_Run_Trace(t *testing.T) {
	dir := writeBlueprint(t, floorPlanSVG, 400, 300)
	in, err := ResolveInputs(dir)
	if err != nil {
		t.Fatalf("ResolveInputs failed: %v", err)
	}

	p := New(config.Default(), roomLabels(), nil)
	res, err := p.Run(in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run id %q is not a UUID: %v", res.RunID, err)
	}
	if len(res.Document.Polygons) != 3 || res.Document.Skipped != 1 {
		t.Errorf("document: %d polygons, %d skipped", len(res.Document.Polygons), res.Document.Skipped)
	}
	if len(res.Labels) != 2 {
		t.Errorf("labels: got %d, want 2", len(res.Labels))
	}
	if len(res.Match.Assignments) != 3 {
		t.Errorf("assignments: got %d, want 3", len(res.Match.Assignments))
	}
	// Both squares are 50 units from the first label: the tie goes to Room 1.
	if res.Match.Assignments[1].Label != "Room 1" {
		t.Errorf("tie-break: got %s", res.Match.Assignments[1].Label)
	}
	if !res.Alignment.Checked || !res.Alignment.Aligned {
		t.Errorf("alignment: got %+v", res.Alignment)
	}

	again, err := p.Run(in)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if again.RunID == res.RunID {
		t.Error("each run should get its own id")
	}
}

func TestPipeline_Alignment(t *testing.T) {
	shifted := strings.Replace(floorPlanSVG, `viewBox="0 0 400 300"`, `viewBox="100 100 400 300"`, 1)

	tests := []struct {
		name      string
		svg       string
		mode      string
		imgW      int
		imgH      int
		wantErr   error
		wantCheck bool
		wantAlign bool
		wantLog   string
	}{
		{"within tolerance", floorPlanSVG, config.AlignmentWarn, 401, 300, nil, true, true, ""},
		{"warn on mismatch", floorPlanSVG, config.AlignmentWarn, 200, 150, nil, true, false, "do not line up with the image"},
		{"strict on mismatch", floorPlanSVG, config.AlignmentStrict, 200, 150, bperrors.ErrCoordinateMismatch, true, false, ""},
		{"off", floorPlanSVG, config.AlignmentOff, 200, 150, nil, false, false, ""},
		{"warn on shifted origin", shifted, config.AlignmentWarn, 400, 300, nil, true, false, "origin=100,100"},
		{"strict on shifted origin", shifted, config.AlignmentStrict, 400, 300, bperrors.ErrCoordinateMismatch, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeBlueprint(t, tt.svg, tt.imgW, tt.imgH)
			cfg := config.Default()
			cfg.Alignment.Mode = tt.mode

			var buf bytes.Buffer
			p := New(cfg, roomLabels(), logging.NewLoggerTo(&buf, "test", logging.LevelDebug))

			in, err := ResolveInputs(dir)
			if err != nil {
				t.Fatalf("ResolveInputs failed: %v", err)
			}
			res, err := p.Run(in)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				var perr *bperrors.ProcessingError
				if errors.As(err, &perr) && perr.Blueprint != "house-42" {
					t.Errorf("error blueprint: got %q", perr.Blueprint)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if res.Alignment.Checked != tt.wantCheck || res.Alignment.Aligned != tt.wantAlign {
				t.Errorf("alignment: got %+v", res.Alignment)
			}
			if tt.wantLog != "" && !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("log should mention %q:\n%s", tt.wantLog, buf.String())
			}
		})
	}
}

func TestPipeline_AlignmentSkippedWithoutDeclaredSize(t *testing.T) {
	svg := `<svg><polygon points="0,0 10,0 10,10"/></svg>`
	dir := writeBlueprint(t, svg, 50, 50)
	cfg := config.Default()
	cfg.Alignment.Mode = config.AlignmentStrict

	p := New(cfg, fakeRecognizer(ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(0, 0, 10, 10)), Text: "A", Confidence: 0.9}), nil)
	report, err := p.ProduceReport(dir)
	if err != nil {
		t.Fatalf("ProduceReport failed: %v", err)
	}
	if len(report.Rooms) != 1 {
		t.Errorf("rooms: got %d, want 1", len(report.Rooms))
	}
}

func TestPipeline_Failures(t *testing.T) {
	tests := []struct {
		name    string
		svg     string
		rec     ocr.Recognizer
		wantErr error
	}{
		{
			name:    "malformed svg",
			svg:     `<svg><polygon points="0,0 1,0 1,1"/><!-- a -- b --></svg>`,
			rec:     roomLabels(),
			wantErr: bperrors.ErrInvalidGeometry,
		},
		{
			name: "recognizer error",
			svg:  floorPlanSVG,
			rec: ocr.RecognizerFunc(func(string) ([]ocr.Detection, error) {
				return nil, errors.New("tesseract crashed")
			}),
			wantErr: bperrors.ErrOCRFailed,
		},
		{
			name:    "no recognizer",
			svg:     floorPlanSVG,
			rec:     nil,
			wantErr: bperrors.ErrOCRFailed,
		},
		{
			name:    "no labels",
			svg:     floorPlanSVG,
			rec:     fakeRecognizer(),
			wantErr: bperrors.ErrNoRoomsMatched,
		},
		{
			name:    "no polygons",
			svg:     `<svg viewBox="0 0 400 300"><rect width="10" height="10"/></svg>`,
			rec:     roomLabels(),
			wantErr: bperrors.ErrNoRoomsMatched,
		},
		{
			name:    "truncated before any polygon",
			svg:     `<svg viewBox="0 0 400 300"><polygon points="0,0 1,0 1,1"`,
			rec:     roomLabels(),
			wantErr: bperrors.ErrNoRoomsMatched,
		},
		{
			name:    "only degenerate polygons",
			svg:     `<svg viewBox="0 0 400 300"><polygon points="0,0 1,1"/><polygon points="a,b c,d e,f"/></svg>`,
			rec:     roomLabels(),
			wantErr: bperrors.ErrNoRoomsMatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeBlueprint(t, tt.svg, 400, 300)
			p := New(config.Default(), tt.rec, nil)

			report, err := p.ProduceReport(dir)
			if report != nil {
				t.Errorf("expected no report, got %+v", report)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var perr *bperrors.ProcessingError
			if !errors.As(err, &perr) || perr.Blueprint != "house-42" {
				t.Errorf("error should carry blueprint name: %v", err)
			}
		})
	}
}

func TestPipeline_SpatialOrder(t *testing.T) {
	dir := writeBlueprint(t, floorPlanSVG, 400, 300)
	cfg := config.Default()
	cfg.Labels.Order = config.OrderSpatial

	// Recognizer reports the bottom-right label first.
	rec := fakeRecognizer(
		ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(300, 195, 320, 205)), Text: "WC", Confidence: 0.88},
		ocr.Detection{Quad: ocr.QuadFromRect(image.Rect(90, 45, 110, 55)), Text: "Living", Confidence: 0.93},
	)

	report, err := New(cfg, rec, nil).ProduceReport(dir)
	if err != nil {
		t.Fatalf("ProduceReport failed: %v", err)
	}
	if report.Rooms[0].Room != "Room 1" || report.Rooms[0].AreaSqft != 200 {
		t.Errorf("spatial order should name the top-left label Room 1: %+v", report.Rooms)
	}
}

func TestResult_Overlay(t *testing.T) {
	dir := writeBlueprint(t, floorPlanSVG, 400, 300)
	in, _ := ResolveInputs(dir)
	res, err := New(config.Default(), roomLabels(), nil).Run(in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ov := res.Overlay()
	if len(ov.Polygons) != 3 || len(ov.Labels) != 2 {
		t.Fatalf("overlay: %d polygons, %d labels", len(ov.Polygons), len(ov.Labels))
	}
	if ov.Polygons[2].Room != "Room 2" {
		t.Errorf("polygon 2 room: got %q", ov.Polygons[2].Room)
	}
	if ov.Polygons[0].Vertices[1] != [2]float64{100, 0} {
		t.Errorf("vertex: got %v", ov.Polygons[0].Vertices[1])
	}

	out := filepath.Join(t.TempDir(), "overlay.png")
	if err := SaveOverlay(res, out); err != nil {
		t.Fatalf("SaveOverlay failed: %v", err)
	}
	dims, err := imaging.ReadDimensions(out)
	if err != nil {
		t.Fatalf("ReadDimensions failed: %v", err)
	}
	if dims.Width != 400 || dims.Height != 300 {
		t.Errorf("overlay size: got %dx%d", dims.Width, dims.Height)
	}
}

func TestConfigConversions(t *testing.T) {
	cfg := config.Default()
	if got := EstimateConstants(cfg.Estimate); got != estimate.DefaultConstants() {
		t.Errorf("EstimateConstants: got %+v", got)
	}
	if got := LabelOptions(cfg.Labels); got.MinConfidence != 0.6 || got.Order != config.OrderDetection {
		t.Errorf("LabelOptions: got %+v", got)
	}
	if got := OCROptions(cfg.OCR); got.Language != "eng" || got.Level != ocr.LevelLine {
		t.Errorf("OCROptions: got %+v", got)
	}
}
