// Package imaging loads blueprint rasters and draws on them.
//
// It covers the three things the pipeline needs from the scaled raster:
// reading its size from the file header for the alignment check, cleaning
// it up before text recognition, and drawing the label/room overlay used
// to review a run.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. This is also the
// coordinate system of the vector outlines, which is why polygons can be
// drawn without transformation when the raster is aligned with them.
//
// # Formats
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and
// WebP by golang.org/x/image. See SupportedExtensions.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Other functions are
// stateless and return new images rather than modifying their input.
//
// # Performance Considerations
//
// Large images may consume significant memory when cached. Entries for files
// that were replaced or removed are dropped on the next Load(); Evict() drops
// one explicitly.
package imaging
