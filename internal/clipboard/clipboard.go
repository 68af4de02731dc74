// Package clipboard implements copy, paste, and split for timeline clip
// selections. Copied clips are normalized so the earliest selected clip sits
// at time zero; paste re-offsets against the playhead and assigns fresh ids.
// The clipboard is session-scoped and never persisted.
package clipboard

import (
	"math"

	"github.com/google/uuid"

	"soundlab/internal/timeline"
)

// splitEdgeMargin is the minimum distance from either clip edge for a split
// to take effect.
const splitEdgeMargin = 0.1

// Clipboard holds position-normalized deep clones of copied clips.
type Clipboard struct {
	clips []*timeline.Clip
}

// New returns an empty clipboard.
func New() *Clipboard {
	return &Clipboard{}
}

// Len returns the number of held clips.
func (b *Clipboard) Len() int { return len(b.clips) }

// Copy deep-clones every selected clip across all lanes and shifts the
// clones so the earliest one starts at zero. Returns the number copied; an
// empty selection leaves the clipboard untouched.
func (b *Clipboard) Copy(state *timeline.State, selected map[string]struct{}) int {
	if len(selected) == 0 {
		return 0
	}
	var clones []*timeline.Clip
	min := math.Inf(1)
	for _, group := range state.Lanes {
		for _, clip := range group.Clips {
			if _, ok := selected[clip.ID]; !ok {
				continue
			}
			clone := clip.Clone()
			clones = append(clones, clone)
			if clone.StartTime < min {
				min = clone.StartTime
			}
		}
	}
	if len(clones) == 0 {
		return 0
	}
	for _, clone := range clones {
		clone.StartTime -= min
	}
	b.clips = clones
	return len(clones)
}

// Paste appends the clipboard contents at the playhead, preserving each
// clip's lane from copy time and assigning fresh ids. Returns the new clip
// ids; an empty clipboard is a no-op.
func (b *Clipboard) Paste(state *timeline.State, playhead float64) []string {
	if len(b.clips) == 0 {
		return nil
	}
	ids := make([]string, 0, len(b.clips))
	for _, held := range b.clips {
		clip := held.Clone()
		clip.ID = uuid.NewString()
		clip.StartTime = playhead + held.StartTime
		if state.AddClip(clip) {
			ids = append(ids, clip.ID)
		}
	}
	return ids
}

// Split cuts every selected clip whose span strictly contains the playhead
// with at least splitEdgeMargin from either edge. The left half keeps the
// original id and loses its fade-out; the right half gets a fresh id and
// loses its fade-in, since a fade cannot survive a cut. Locked clips and
// clips failing the margin test are untouched. Returns the number of splits.
func Split(state *timeline.State, selected map[string]struct{}, playhead float64) int {
	splits := 0
	for _, group := range state.Lanes {
		out := make([]*timeline.Clip, 0, len(group.Clips))
		for _, clip := range group.Clips {
			_, isSelected := selected[clip.ID]
			if !isSelected || clip.Locked || !splittable(clip, playhead) {
				out = append(out, clip)
				continue
			}
			left := clip.Clone()
			left.Duration = playhead - clip.StartTime
			left.FadeOut = 0
			left.ClampFades()

			right := clip.Clone()
			right.ID = uuid.NewString()
			right.StartTime = playhead
			right.Duration = clip.End() - playhead
			right.FadeIn = 0
			right.ClampFades()

			out = append(out, left, right)
			splits++
		}
		group.Clips = out
	}
	return splits
}

func splittable(clip *timeline.Clip, playhead float64) bool {
	return playhead > clip.StartTime+splitEdgeMargin && playhead < clip.End()-splitEdgeMargin
}
