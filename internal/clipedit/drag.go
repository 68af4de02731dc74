package clipedit

import (
	"math"

	"soundlab/internal/timeline"
)

// Mode names the drag variant in flight.
type Mode int

const (
	DragMove Mode = iota
	DragResizeLeft
	DragResizeRight
)

// minDragMotion is the pointer travel (in pixels) below which a drag is
// treated as an accidental click and commits nothing.
const minDragMotion = 3.0

// Grid controls snapping. A zero or negative Size disables snapping even
// when Enabled is set.
type Grid struct {
	Size    float64
	Enabled bool
}

// Snap quantizes a time to the grid, or returns it unchanged when snapping
// is off.
func (g Grid) Snap(t float64) float64 {
	if !g.Enabled || g.Size <= 0 {
		return t
	}
	return math.Round(t/g.Size) * g.Size
}

// Drag tracks one in-flight gesture. Geometry is derived from the original
// clip values captured at Begin plus the cumulative pointer delta.
type Drag struct {
	ClipID string
	Mode   Mode

	originStart    float64
	originDuration float64
	originX        float64
	pixelsPerSec   float64
	grid           Grid
	moved          bool
}

// Begin starts a drag on the given clip. Locked clips refuse the gesture.
func Begin(clip *timeline.Clip, mode Mode, pointerX, pixelsPerSec float64, grid Grid) (*Drag, bool) {
	if clip == nil || clip.Locked {
		return nil, false
	}
	if pixelsPerSec <= 0 {
		pixelsPerSec = 1
	}
	return &Drag{
		ClipID:         clip.ID,
		Mode:           mode,
		originStart:    clip.StartTime,
		originDuration: clip.Duration,
		originX:        pointerX,
		pixelsPerSec:   pixelsPerSec,
		grid:           grid,
	}, true
}

// Moved reports whether the pointer ever crossed the minimum-motion
// threshold; callers skip the history commit when it never did.
func (d *Drag) Moved() bool { return d.moved }

// Update recomputes the dragged clip's geometry for the current pointer
// position and applies it to the clip in state. Until the pointer crosses
// the minimum-motion threshold nothing is mutated, so an accidental click
// leaves the clip untouched. Missing clips are no-ops.
func (d *Drag) Update(state *timeline.State, pointerX float64) {
	if math.Abs(pointerX-d.originX) >= minDragMotion {
		d.moved = true
	}
	if !d.moved {
		return
	}
	clip, _ := state.FindClip(d.ClipID)
	if clip == nil {
		return
	}
	delta := (pointerX - d.originX) / d.pixelsPerSec
	start, duration := Resolve(d.Mode, d.originStart, d.originDuration, delta, d.grid)
	clip.StartTime = start
	clip.Duration = duration
	clip.ClampFades()
}

// Resolve computes the candidate geometry for a cumulative time delta
// against the original pre-drag geometry. It is pure: replaying the same
// total delta in one step or many yields identical results.
func Resolve(mode Mode, originStart, originDuration, delta float64, grid Grid) (start, duration float64) {
	switch mode {
	case DragResizeLeft:
		start = grid.Snap(math.Max(0, originStart+delta))
		rightEdge := originStart + originDuration
		if start > rightEdge-timeline.MinClipDuration {
			start = rightEdge - timeline.MinClipDuration
		}
		duration = rightEdge - start
	case DragResizeRight:
		start = originStart
		duration = grid.Snap(math.Max(timeline.MinClipDuration, originDuration+delta))
		if duration < timeline.MinClipDuration {
			duration = timeline.MinClipDuration
		}
	default:
		start = grid.Snap(math.Max(0, originStart+delta))
		duration = originDuration
	}
	if start < 0 {
		start = 0
	}
	return start, duration
}
