package clipedit

import "sort"

// Selection is the ephemeral set of selected clip ids plus the most recently
// clicked id used for anchoring shift-click ranges. It is never persisted.
type Selection struct {
	ids  map[string]struct{}
	last string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Click applies single-click semantics: without shift the selection is
// replaced by the clicked clip; with shift the clip's membership is toggled.
// The clicked clip always becomes the anchor.
func (s *Selection) Click(clipID string, shift bool) {
	if !shift {
		s.ids = map[string]struct{}{clipID: {}}
		s.last = clipID
		return
	}
	if _, ok := s.ids[clipID]; ok {
		delete(s.ids, clipID)
	} else {
		s.ids[clipID] = struct{}{}
	}
	s.last = clipID
}

// Replace selects exactly the given ids.
func (s *Selection) Replace(ids ...string) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	if len(ids) > 0 {
		s.last = ids[len(ids)-1]
	}
}

// Contains reports membership.
func (s *Selection) Contains(clipID string) bool {
	_, ok := s.ids[clipID]
	return ok
}

// Anchor returns the most recently clicked clip id.
func (s *Selection) Anchor() string { return s.last }

// Len returns the number of selected clips.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in stable sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Set returns the selection as a membership set.
func (s *Selection) Set() map[string]struct{} {
	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}

// Clear empties the selection and the anchor.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
	s.last = ""
}
