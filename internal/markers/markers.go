// Package markers implements the timeline bookmark registry: sequential
// ids, a fixed color palette cycled by creation order, and forward/backward
// seek with a small dead zone so jumping never re-triggers on the marker the
// playhead already sits on.
package markers

import (
	"fmt"
	"sort"

	"soundlab/internal/timeline"
)

// seekDeadZone keeps next/prev from matching the marker under the playhead.
const seekDeadZone = 0.05

// Palette is the fixed marker color cycle, indexed by creation order.
var Palette = []string{
	"#ef4444",
	"#f97316",
	"#eab308",
	"#22c55e",
	"#06b6d4",
	"#6366f1",
	"#a855f7",
	"#ec4899",
}

// Registry keeps markers sorted by time while coloring them by creation
// order.
type Registry struct {
	markers []timeline.Marker
	seq     int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add inserts a marker at the given time. Empty labels become M{n}. Colors
// cycle through the palette by creation order, not by time order.
func (r *Registry) Add(time float64, label string) timeline.Marker {
	r.seq++
	if label == "" {
		label = fmt.Sprintf("M%d", r.seq)
	}
	marker := timeline.Marker{
		ID:    r.seq,
		Time:  time,
		Label: label,
		Color: Palette[(r.seq-1)%len(Palette)],
	}
	r.markers = append(r.markers, marker)
	sort.SliceStable(r.markers, func(i, j int) bool {
		return r.markers[i].Time < r.markers[j].Time
	})
	return marker
}

// Remove deletes a marker by id.
func (r *Registry) Remove(id int) bool {
	for i, marker := range r.markers {
		if marker.ID == id {
			r.markers = append(r.markers[:i], r.markers[i+1:]...)
			return true
		}
	}
	return false
}

// Markers returns the time-ordered marker list.
func (r *Registry) Markers() []timeline.Marker {
	out := make([]timeline.Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

// Len returns the marker count.
func (r *Registry) Len() int { return len(r.markers) }

// Next returns the first marker strictly after the current time, outside
// the dead zone. ok is false when none qualifies.
func (r *Registry) Next(current float64) (timeline.Marker, bool) {
	for _, marker := range r.markers {
		if marker.Time > current+seekDeadZone {
			return marker, true
		}
	}
	return timeline.Marker{}, false
}

// Prev returns the last marker strictly before the current time, outside
// the dead zone. ok is false when none qualifies.
func (r *Registry) Prev(current float64) (timeline.Marker, bool) {
	for i := len(r.markers) - 1; i >= 0; i-- {
		if r.markers[i].Time < current-seekDeadZone {
			return r.markers[i], true
		}
	}
	return timeline.Marker{}, false
}

// Reset clears all markers and the id sequence.
func (r *Registry) Reset() {
	r.markers = nil
	r.seq = 0
}
