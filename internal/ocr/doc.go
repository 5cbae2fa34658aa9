// Package ocr finds text in blueprint rasters using Tesseract.
//
// The Recognizer interface is the only thing the rest of the estimator
// depends on. TesseractEngine implements it with gosseract/v2; tests and
// callers with their own recognizer can use RecognizerFunc.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-standard tessdata location can be set with Options.TessdataPrefix.
//
// # Granularity
//
// LevelLine (the default) reports one detection per text line, so a label
// such as "Living Room" comes back as a single phrase. LevelWord reports each
// word separately.
//
// # Sharing
//
// Loading a language model is slow. Shared returns one engine per process,
// created on first use; its Recognize calls are serialized because the
// underlying client holds the current image.
//
// # Coordinates
//
// Detection quads are in the pixel space of the input file. Preprocessing
// (grayscale, contrast, sharpen) never resizes, so quads stay valid for the
// original image.
package ocr
