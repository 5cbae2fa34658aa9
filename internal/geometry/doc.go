// Package geometry extracts room outlines from a vector floor plan.
//
// A floor plan is an SVG document whose polygon elements carry a points
// attribute of whitespace-separated "x,y" pairs. Parse walks the whole
// document, so polygons nested inside groups are found as well.
//
// # Recovery Rules
//
// Parsing is forgiving at the token level:
//   - A point token that is not exactly two comma-separated numbers is dropped
//   - A polygon left with fewer than three points is dropped and counted in
//     Document.Skipped
//
// Neither case is an error. A document with no usable polygons parses
// successfully; the matcher later reports that no rooms matched.
//
// # Derived Values
//
// Polygon.Area is the unsigned shoelace area, so clockwise and
// counter-clockwise outlines give the same value. Polygon.Centroid is the
// plain mean of the vertices, which is the matching anchor used throughout
// the pipeline.
package geometry
