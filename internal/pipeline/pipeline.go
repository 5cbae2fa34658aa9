// Package pipeline runs the full blueprint estimate: geometry extraction,
// label detection, room matching and material estimation, in that order.
//
// A Pipeline holds only configuration and the shared recognizer. All
// intermediate state lives in the Result of a single Run, so one Pipeline
// may serve many blueprints one after another.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ironsheep/blueprint-estimator/internal/config"
	"github.com/ironsheep/blueprint-estimator/internal/detection"
	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/estimate"
	"github.com/ironsheep/blueprint-estimator/internal/geometry"
	"github.com/ironsheep/blueprint-estimator/internal/imaging"
	"github.com/ironsheep/blueprint-estimator/internal/logging"
	"github.com/ironsheep/blueprint-estimator/internal/matching"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
)

// Alignment is the outcome of comparing the vector extent with the raster
// size.
type Alignment struct {
	Mode    string `json:"mode"`
	Checked bool   `json:"checked"`
	Aligned bool   `json:"aligned"`

	VectorMinX   float64 `json:"vector_min_x,omitempty"`
	VectorMinY   float64 `json:"vector_min_y,omitempty"`
	VectorWidth  float64 `json:"vector_width,omitempty"`
	VectorHeight float64 `json:"vector_height,omitempty"`
	ImageWidth   int     `json:"image_width,omitempty"`
	ImageHeight  int     `json:"image_height,omitempty"`
}

// Result is the full trace of one run.
type Result struct {
	RunID     string             `json:"run_id"`
	Inputs    Inputs             `json:"inputs"`
	Document  *geometry.Document `json:"-"`
	Labels    []detection.Label  `json:"labels"`
	Match     *matching.Result   `json:"match"`
	Report    *estimate.Report   `json:"report"`
	Alignment Alignment          `json:"alignment"`
}

// Pipeline turns blueprint folders into reports.
type Pipeline struct {
	cfg    *config.Config
	rec    ocr.Recognizer
	est    *estimate.Estimator
	logger *logging.Logger
}

// New creates a pipeline. rec is used for every run; logger may be nil.
func New(cfg *config.Config, rec ocr.Recognizer, logger *logging.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		cfg:    cfg,
		rec:    rec,
		est:    estimate.New(EstimateConstants(cfg.Estimate)),
		logger: logger,
	}
}

// EstimateConstants converts configured factors into estimator constants.
func EstimateConstants(c config.EstimateConfig) estimate.Constants {
	return estimate.Constants{
		AreaConversion:  c.AreaConversion,
		CeilingHeight:   c.CeilingHeight,
		PaintCoverage:   c.PaintCoverage,
		DrywallCoverage: c.DrywallCoverage,
		WasteFactor:     c.WasteFactor,
	}
}

// LabelOptions converts configured label settings into detector options.
func LabelOptions(c config.LabelConfig) detection.Options {
	return detection.Options{
		MinConfidence: c.MinConfidence,
		Order:         c.Order,
	}
}

// OCROptions converts configured OCR settings into engine options.
func OCROptions(c config.OCRConfig) ocr.Options {
	return ocr.Options{
		Language:       c.Language,
		TessdataPrefix: c.TessdataPrefix,
		Level:          c.Level,
		Preprocess:     c.Preprocess,
	}
}

// ProduceReport resolves the inputs in folder and returns the estimate.
func (p *Pipeline) ProduceReport(folder string) (*estimate.Report, error) {
	in, err := ResolveInputs(folder)
	if err != nil {
		return nil, err
	}
	res, err := p.Run(in)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Run processes resolved inputs and returns every intermediate result.
// Any ProcessingError returned carries the blueprint name.
func (p *Pipeline) Run(in Inputs) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Inputs: in}
	log := p.logger

	log.Info("Processing blueprint", "run", res.RunID, "blueprint", in.Blueprint)

	doc, err := geometry.ParseFile(in.VectorPath)
	if err != nil {
		return nil, p.fail(res, err)
	}
	res.Document = doc
	log.Debug("Parsed geometry", "run", res.RunID, "polygons", len(doc.Polygons), "skipped", doc.Skipped)
	if doc.Truncated {
		log.Warn("Vector document ends early; using the polygons read so far", "run", res.RunID, "polygons", len(doc.Polygons))
	}

	res.Alignment, err = p.checkAlignment(res.RunID, doc, in.ImagePath)
	if err != nil {
		return nil, p.fail(res, err)
	}

	if p.rec == nil {
		return nil, p.fail(res, bperrors.NewOCRFailedError(in.ImagePath, errors.New("no recognizer configured")))
	}
	labels, err := detection.DetectLabels(p.rec, in.ImagePath, LabelOptions(p.cfg.Labels))
	if err != nil {
		return nil, p.fail(res, err)
	}
	res.Labels = labels
	log.Debug("Detected labels", "run", res.RunID, "labels", len(labels))

	match, err := matching.Match(doc.Polygons, labels)
	if err != nil {
		return nil, p.fail(res, err)
	}
	res.Match = match

	res.Report = p.est.Build(in.Blueprint, match.Areas)
	log.Info("Blueprint estimated", "run", res.RunID, "blueprint", in.Blueprint,
		"rooms", len(res.Report.Rooms), "area_sqft", res.Report.Totals.AreaSqft)

	return res, nil
}

func (p *Pipeline) fail(res *Result, err error) error {
	var perr *bperrors.ProcessingError
	if errors.As(err, &perr) {
		perr.WithBlueprint(res.Inputs.Blueprint)
	}
	p.logger.Error("Blueprint failed", "run", res.RunID, "blueprint", res.Inputs.Blueprint, "error", err)
	return err
}

// checkAlignment compares the declared SVG extent with the raster size and
// expects a viewBox to start at 0,0. Only strict mode turns a mismatch into
// an error.
func (p *Pipeline) checkAlignment(runID string, doc *geometry.Document, imagePath string) (Alignment, error) {
	a := Alignment{Mode: p.cfg.Alignment.Mode}
	if a.Mode == config.AlignmentOff {
		return a, nil
	}

	w, h, ok := doc.Extent()
	if !ok {
		p.logger.Debug("SVG declares no size, skipping alignment check", "run", runID)
		return a, nil
	}

	dims, err := imaging.ReadDimensions(imagePath)
	if err != nil {
		p.logger.Warn("Could not read image size, skipping alignment check", "run", runID, "error", err)
		return a, nil
	}

	a.Checked = true
	a.VectorWidth, a.VectorHeight = w, h
	a.ImageWidth, a.ImageHeight = dims.Width, dims.Height

	tol := p.cfg.Alignment.Tolerance
	sized := math.Abs(w-float64(dims.Width)) <= tol && math.Abs(h-float64(dims.Height)) <= tol

	// A shifted viewBox origin offsets every polygon from the raster pixels
	// even when the sizes agree.
	atOrigin := true
	if vb := doc.ViewBox; vb != nil {
		a.VectorMinX, a.VectorMinY = vb.MinX, vb.MinY
		atOrigin = math.Abs(vb.MinX) <= tol && math.Abs(vb.MinY) <= tol
	}

	a.Aligned = sized && atOrigin
	if a.Aligned {
		return a, nil
	}

	if a.Mode == config.AlignmentStrict {
		if !sized {
			return a, bperrors.NewCoordinateMismatchError(w, h, dims.Width, dims.Height)
		}
		return a, bperrors.NewOffsetOriginError(a.VectorMinX, a.VectorMinY)
	}
	p.logger.Warn("Vector coordinates do not line up with the image; label matching may be off",
		"run", runID,
		"origin", fmt.Sprintf("%g,%g", a.VectorMinX, a.VectorMinY),
		"vector", fmt.Sprintf("%gx%g", w, h),
		"image", fmt.Sprintf("%dx%d", dims.Width, dims.Height))
	return a, nil
}
