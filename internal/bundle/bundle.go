// Package bundle opens zipped blueprint uploads.
//
// A bundle is a zip holding either a blueprint folder (model.svg plus a
// scaled raster) or a previously computed result JSON. When a result JSON is
// present it is returned as-is and nothing is recomputed.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/estimate"
)

// MaxEntrySize bounds a single extracted file.
const MaxEntrySize = 256 << 20

// ProduceFunc computes a report for an extracted blueprint folder.
type ProduceFunc func(folder string) (*estimate.Report, error)

// Opened is the outcome of opening a bundle.
type Opened struct {
	// Folder is where the bundle was extracted.
	Folder string `json:"folder"`

	// ResultPath is set when the bundle carried its own result JSON.
	ResultPath string `json:"result_path,omitempty"`

	// Raw is the carried JSON, or the produced report encoded as JSON.
	Raw json.RawMessage `json:"raw"`

	// Report is the decoded report. It is nil when a carried JSON does not
	// have the report shape.
	Report *estimate.Report `json:"report,omitempty"`
}

// PassThrough reports whether the result came from the bundle itself.
func (o *Opened) PassThrough() bool {
	return o.ResultPath != ""
}

// skipEntry reports whether a zip entry is macOS metadata.
func skipEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(filepath.Base(name), "._")
}

// Extract unpacks zipPath into dest. Entries that would land outside dest
// are rejected; macOS metadata entries are skipped.
func Extract(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return bperrors.NewInvalidArchiveError(zipPath, err)
	}
	defer zr.Close()
	return extractAll(&zr.Reader, zipPath, dest)
}

func extractAll(zr *zip.Reader, zipPath, dest string) error {
	root, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve extract directory: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create extract directory: %w", err)
	}

	for _, f := range zr.File {
		if skipEntry(f.Name) {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return bperrors.NewInvalidArchiveError(zipPath, fmt.Errorf("entry %q escapes extract directory", f.Name))
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return bperrors.NewInvalidArchiveError(zipPath, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, MaxEntrySize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > MaxEntrySize {
		return fmt.Errorf("entry %q exceeds %d bytes", f.Name, MaxEntrySize)
	}
	return nil
}

// FindResult returns the lexically first .json file directly in dir,
// ignoring "._" resource forks. ok is false when there is none.
func FindResult(dir string) (path string, ok bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "._") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// BlueprintRoot returns the folder holding the blueprint files. Archives
// created by zipping a folder put everything one level down, so when dir
// has no model.svg and exactly one subdirectory, that subdirectory is used.
func BlueprintRoot(dir string) string {
	if _, err := os.Stat(filepath.Join(dir, "model.svg")); err == nil {
		return dir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir
	}
	var sub string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "__MACOSX" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if sub != "" {
			return dir
		}
		sub = filepath.Join(dir, e.Name())
	}
	if sub == "" {
		return dir
	}
	return sub
}

// Open extracts zipPath under workDir and returns its result.
//
// Every call extracts into a new directory <workDir>/<name>-*/<name>, where
// name is the zip file name without its extension; nothing already under
// workDir is touched. An empty workDir means os.TempDir().
func Open(zipPath, workDir string, produce ProduceFunc) (*Opened, error) {
	base := filepath.Base(zipPath)
	if !strings.EqualFold(filepath.Ext(base), ".zip") {
		return nil, bperrors.NewInvalidArchiveError(zipPath, fmt.Errorf("not a .zip file"))
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == ".." {
		return nil, bperrors.NewInvalidArchiveError(zipPath, fmt.Errorf("zip file name %q has no usable base name", base))
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, bperrors.NewInvalidArchiveError(zipPath, err)
	}
	defer zr.Close()

	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	parent, err := os.MkdirTemp(workDir, name+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create extract directory: %w", err)
	}
	dest := filepath.Join(parent, name)
	if err := extractAll(&zr.Reader, zipPath, dest); err != nil {
		return nil, err
	}

	opened := &Opened{Folder: dest}

	if path, ok := FindResult(dest); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read result file: %w", err)
		}
		if !json.Valid(data) {
			return nil, bperrors.NewInvalidArchiveError(zipPath, fmt.Errorf("%s is not valid JSON", filepath.Base(path)))
		}
		opened.ResultPath = path
		opened.Raw = data

		var r estimate.Report
		if err := json.Unmarshal(data, &r); err == nil && r.Blueprint != "" && r.Rooms != nil {
			opened.Report = &r
		}
		return opened, nil
	}

	root := BlueprintRoot(dest)
	opened.Folder = root
	report, err := produce(root)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	opened.Raw = raw
	opened.Report = report
	return opened, nil
}
