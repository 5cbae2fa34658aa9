package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/blueprint-estimator/internal/imaging"
)

// Iterator levels accepted by Options.Level.
const (
	LevelLine = "line"
	LevelWord = "word"
)

// Detection is one piece of text found by a recognizer.
type Detection struct {
	// Quad holds the bounding corners clockwise from top-left, in image pixels.
	Quad       [4]image.Point `json:"quad"`
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence"`
}

// Recognizer finds text in a raster image.
type Recognizer interface {
	Recognize(imagePath string) ([]Detection, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(imagePath string) ([]Detection, error)

// Recognize calls f(imagePath).
func (f RecognizerFunc) Recognize(imagePath string) ([]Detection, error) {
	return f(imagePath)
}

// Options configures a TesseractEngine.
type Options struct {
	Language       string
	TessdataPrefix string
	Level          string
	Preprocess     bool
}

// DefaultOptions returns English at text-line granularity, without
// preprocessing.
func DefaultOptions() Options {
	return Options{
		Language: "eng",
		Level:    LevelLine,
	}
}

func (o Options) iteratorLevel() (gosseract.PageIteratorLevel, error) {
	switch strings.ToLower(o.Level) {
	case "", LevelLine:
		return gosseract.RIL_TEXTLINE, nil
	case LevelWord:
		return gosseract.RIL_WORD, nil
	default:
		return 0, fmt.Errorf("unknown OCR level %q", o.Level)
	}
}

// QuadFromRect returns the four corners of r clockwise from top-left.
func QuadFromRect(r image.Rectangle) [4]image.Point {
	return [4]image.Point{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
}

// TesseractEngine is a Recognizer backed by a single gosseract client.
//
// The client keeps the current image as state, so Recognize calls are
// serialized. The language model is loaded once per engine.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
	level  gosseract.PageIteratorLevel
	opts   Options
}

// NewTesseractEngine creates an engine with its own Tesseract client.
// Call Close when done.
func NewTesseractEngine(opts Options) (*TesseractEngine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	level, err := opts.iteratorLevel()
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	return &TesseractEngine{client: client, level: level, opts: opts}, nil
}

// Recognize runs Tesseract over the image at imagePath.
func (e *TesseractEngine) Recognize(imagePath string) ([]Detection, error) {
	var data []byte
	if e.opts.Preprocess {
		img, err := imaging.LoadImage(imagePath)
		if err != nil {
			return nil, err
		}
		data, err = imaging.EncodePNG(imaging.Preprocess(img, imaging.DefaultPreprocessOptions()))
		if err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if data != nil {
		if err := e.client.SetImageFromBytes(data); err != nil {
			return nil, fmt.Errorf("failed to set image: %w", err)
		}
	} else if err := e.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(e.level)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	dets := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		dets = append(dets, Detection{
			Quad:       QuadFromRect(box.Box),
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
		})
	}
	return dets, nil
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

var (
	sharedOnce   sync.Once
	sharedEngine *TesseractEngine
	sharedErr    error
)

// Shared returns the process-wide engine, creating it on first use.
// Options passed after the first call are ignored.
func Shared(opts Options) (*TesseractEngine, error) {
	sharedOnce.Do(func() {
		sharedEngine, sharedErr = NewTesseractEngine(opts)
	})
	return sharedEngine, sharedErr
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Backend   string `json:"backend"`
	Language  string `json:"language,omitempty"`
	Level     string `json:"level,omitempty"`
}

// GetInfo reports Tesseract availability for the given options.
func GetInfo(opts Options) Info {
	info := Info{Backend: "gosseract", Language: opts.Language, Level: opts.Level}

	engine, err := Shared(opts)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	engine.mu.Lock()
	info.Version = engine.client.Version()
	engine.mu.Unlock()
	info.Available = info.Version != ""
	if !info.Available {
		info.Error = "tesseract returned no version"
	}
	return info
}
