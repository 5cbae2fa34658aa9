// Package errors defines the structured error types returned by the
// blueprint pipeline.
//
// Every fatal condition is a *ProcessingError carrying an ErrorCode. Callers
// test for a class of failure with the standard library:
//
//	if errors.Is(err, bperrors.ErrNoRoomsMatched) { ... }
//
// Skipped point tokens and skipped polygons are local recovery inside the
// geometry parser and never surface here.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of processing failure.
type ErrorCode string

const (
	// Input errors
	ErrorMissingInput    ErrorCode = "MISSING_INPUT"
	ErrorInvalidGeometry ErrorCode = "INVALID_GEOMETRY"
	ErrorInvalidArchive  ErrorCode = "INVALID_ARCHIVE"

	// Processing errors
	ErrorOCRFailed          ErrorCode = "OCR_FAILED"
	ErrorNoRoomsMatched     ErrorCode = "NO_ROOMS_MATCHED"
	ErrorCoordinateMismatch ErrorCode = "COORDINATE_MISMATCH"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrMissingInput       = &ProcessingError{Code: ErrorMissingInput}
	ErrInvalidGeometry    = &ProcessingError{Code: ErrorInvalidGeometry}
	ErrInvalidArchive     = &ProcessingError{Code: ErrorInvalidArchive}
	ErrOCRFailed          = &ProcessingError{Code: ErrorOCRFailed}
	ErrNoRoomsMatched     = &ProcessingError{Code: ErrorNoRoomsMatched}
	ErrCoordinateMismatch = &ProcessingError{Code: ErrorCoordinateMismatch}
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	Blueprint string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *ProcessingError with the same code.
func (e *ProcessingError) Is(target error) bool {
	t, ok := target.(*ProcessingError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Factory functions for common errors

func NewMissingInputError(blueprint, kind, path string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorMissingInput,
		Message:   fmt.Sprintf("missing required %s file", kind),
		Blueprint: blueprint,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"input_kind": kind,
			"searched":   path,
		},
	}
}

func NewInvalidGeometryError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidGeometry,
		Message:   "vector document could not be parsed",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
		Cause: cause,
	}
}

func NewInvalidArchiveError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidArchive,
		Message:   "blueprint archive could not be extracted",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
		Cause: cause,
	}
}

func NewOCRFailedError(imagePath string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   "text recognition failed",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"image_path": imagePath,
		},
		Cause: cause,
	}
}

func NewNoRoomsMatchedError(polygons, labels int) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorNoRoomsMatched,
		Message:   "no rooms matched",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"polygons": polygons,
			"labels":   labels,
		},
	}
}

func NewCoordinateMismatchError(vectorW, vectorH float64, imageW, imageH int) *ProcessingError {
	return &ProcessingError{
		Code: ErrorCoordinateMismatch,
		Message: fmt.Sprintf("vector extent %gx%g does not match image size %dx%d",
			vectorW, vectorH, imageW, imageH),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"vector_width":  vectorW,
			"vector_height": vectorH,
			"image_width":   imageW,
			"image_height":  imageH,
		},
	}
}

// NewOffsetOriginError reports a viewBox whose origin is not 0,0. Polygon
// coordinates are then shifted relative to raster pixels.
func NewOffsetOriginError(minX, minY float64) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorCoordinateMismatch,
		Message:   fmt.Sprintf("vector origin %g,%g is not 0,0", minX, minY),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"vector_min_x": minX,
			"vector_min_y": minY,
		},
	}
}

// WithBlueprint records the blueprint name on e and returns it.
func (e *ProcessingError) WithBlueprint(name string) *ProcessingError {
	e.Blueprint = name
	return e
}

// ToMap converts the error to a flat map for JSON responses.
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.Blueprint != "" {
		result["blueprint"] = e.Blueprint
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
