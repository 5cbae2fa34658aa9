package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/imaging"
)

// GeometryFile is the fixed name of the vector floor plan inside a folder.
const GeometryFile = "model.svg"

// Inputs are the resolved files for one blueprint.
type Inputs struct {
	// Blueprint is the folder's base name, used as the report name.
	Blueprint  string `json:"blueprint"`
	Folder     string `json:"folder"`
	VectorPath string `json:"vector_path"`
	ImagePath  string `json:"image_path"`
}

// ResolveInputs locates model.svg and the scaled raster in folder.
//
// The raster is the lexically first regular file whose lower-cased name
// contains "scaled" and has a supported image extension. Names starting
// with "._" are resource forks and are ignored.
func ResolveInputs(folder string) (Inputs, error) {
	in := Inputs{
		Blueprint: filepath.Base(filepath.Clean(folder)),
		Folder:    folder,
	}

	in.VectorPath = filepath.Join(folder, GeometryFile)
	if info, err := os.Stat(in.VectorPath); err != nil || info.IsDir() {
		return in, bperrors.NewMissingInputError(in.Blueprint, "geometry", in.VectorPath)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return in, fmt.Errorf("failed to read blueprint folder: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "._") {
			continue
		}
		if strings.Contains(strings.ToLower(name), "scaled") && imaging.IsSupportedImage(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return in, bperrors.NewMissingInputError(in.Blueprint, "image", filepath.Join(folder, "*scaled*"))
	}

	sort.Strings(candidates)
	in.ImagePath = filepath.Join(folder, candidates[0])
	return in, nil
}
