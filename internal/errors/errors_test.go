package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestProcessingError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"missing input", NewMissingInputError("bp", "geometry", "/x/model.svg"), ErrMissingInput, true},
		{"no rooms", NewNoRoomsMatchedError(3, 0), ErrNoRoomsMatched, true},
		{"different code", NewNoRoomsMatchedError(3, 0), ErrMissingInput, false},
		{"wrapped", fmt.Errorf("pipeline: %w", NewNoRoomsMatchedError(0, 0)), ErrNoRoomsMatched, true},
		{"plain error", stderrors.New("boom"), ErrNoRoomsMatched, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stderrors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessingError_Error(t *testing.T) {
	err := NewMissingInputError("bp", "geometry", "/x/model.svg")
	if got := err.Error(); got != "MISSING_INPUT: missing required geometry file" {
		t.Errorf("Error(): got %q", got)
	}

	cause := stderrors.New("unexpected EOF")
	geo := NewInvalidGeometryError("/x/model.svg", cause)
	if !strings.Contains(geo.Error(), "caused by: unexpected EOF") {
		t.Errorf("Error() should include cause, got %q", geo.Error())
	}
	if !stderrors.Is(geo, cause) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestProcessingError_ToMap(t *testing.T) {
	err := NewNoRoomsMatchedError(4, 0).WithBlueprint("house")
	m := err.ToMap()

	if m["error_code"] != "NO_ROOMS_MATCHED" {
		t.Errorf("error_code: got %v", m["error_code"])
	}
	if m["blueprint"] != "house" {
		t.Errorf("blueprint: got %v", m["blueprint"])
	}
	if m["polygons"] != 4 {
		t.Errorf("polygons: got %v, want 4", m["polygons"])
	}
	if _, ok := m["cause"]; ok {
		t.Error("cause should be absent when there is no cause")
	}
}

func TestNewCoordinateMismatchError(t *testing.T) {
	err := NewCoordinateMismatchError(800, 600, 1600, 1200)
	if !strings.Contains(err.Message, "800x600") || !strings.Contains(err.Message, "1600x1200") {
		t.Errorf("Message should name both sizes, got %q", err.Message)
	}
}

func TestNewOffsetOriginError(t *testing.T) {
	err := NewOffsetOriginError(100, -20)
	if !stderrors.Is(err, ErrCoordinateMismatch) {
		t.Errorf("code: got %s", err.Code)
	}
	if !strings.Contains(err.Message, "100,-20") {
		t.Errorf("Message should name the origin, got %q", err.Message)
	}
	if err.Details["vector_min_x"] != 100.0 || err.Details["vector_min_y"] != -20.0 {
		t.Errorf("details: got %v", err.Details)
	}
}
