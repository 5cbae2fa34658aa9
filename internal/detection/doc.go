// Package detection turns text recognized on a blueprint raster into room
// labels.
//
// # Filtering
//
// A recognizer detection becomes a Label only when its confidence is
// strictly greater than the minimum (0.6 by default) and its text is not
// blank after trimming. Everything else is dropped silently.
//
// # Anchors
//
// The anchor of a label is the mean of its four bounding corners, truncated
// to whole pixels. The room matcher compares anchors directly against
// polygon centroids from the SVG, so both must share one coordinate space.
//
// # Naming
//
// Kept labels are named "Room 1", "Room 2", ... in the order the recognizer
// returned them. The recognized text is kept on the label but never used
// as the room name. OrderSpatial sorts labels top-to-bottom, then
// left-to-right before naming, which makes names stable across recognizer
// versions.
package detection
