package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// PreprocessOptions tunes the cleanup applied before text recognition.
type PreprocessOptions struct {
	// Contrast is the relative contrast change, -1 to 1. 0 leaves contrast alone.
	Contrast float64

	// Sharpen applies a single sharpening pass after the contrast change.
	Sharpen bool
}

// DefaultPreprocessOptions works well on scanned plans with grey label text.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Contrast: 0.3,
		Sharpen:  true,
	}
}

// Preprocess converts img to high-contrast grayscale for OCR.
//
// The output always has the same dimensions as the input. Label anchors are
// measured on the preprocessed image and compared against vector
// coordinates, so resampling here would break matching.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	var out image.Image = effect.Grayscale(img)
	if opts.Contrast != 0 {
		out = adjust.Contrast(out, opts.Contrast)
	}
	if opts.Sharpen {
		out = effect.Sharpen(out)
	}
	return out
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
