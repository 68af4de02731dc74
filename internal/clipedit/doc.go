// Package clipedit implements the clip interaction engine: click and
// shift-click selection, the drag state machine for moving and resizing
// clips, and grid snapping. Drag geometry is always recomputed from the
// original pre-drag values plus the cumulative pointer delta, never from the
// previous frame, so long drags cannot accumulate drift.
package clipedit
