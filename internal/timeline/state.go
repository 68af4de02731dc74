package timeline

// State is the full editable timeline: the four fixed lane groups. Lane
// identity never changes at runtime; clips move between lanes only through
// explicit mutation helpers.
type State struct {
	Lanes []*LaneGroup `json:"lanes"`
}

// NewState builds an empty state with the four fixed lanes.
func NewState() *State {
	s := &State{Lanes: make([]*LaneGroup, 0, len(allLanes))}
	for _, lane := range allLanes {
		s.Lanes = append(s.Lanes, &LaneGroup{Lane: lane})
	}
	return s
}

// Clone returns a deep copy suitable for undo snapshots.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cp := &State{Lanes: make([]*LaneGroup, 0, len(s.Lanes))}
	for _, group := range s.Lanes {
		cp.Lanes = append(cp.Lanes, group.Clone())
	}
	return cp
}

// Group returns the lane group for the given lane, or nil if unknown.
func (s *State) Group(lane Lane) *LaneGroup {
	for _, group := range s.Lanes {
		if group.Lane == lane {
			return group
		}
	}
	return nil
}

// FindClip locates a clip by id across all lanes.
func (s *State) FindClip(id string) (*Clip, *LaneGroup) {
	for _, group := range s.Lanes {
		for _, clip := range group.Clips {
			if clip.ID == id {
				return clip, group
			}
		}
	}
	return nil, nil
}

// AddClip appends a clip to its lane's group. Unknown lanes are ignored.
func (s *State) AddClip(clip *Clip) bool {
	if clip == nil {
		return false
	}
	group := s.Group(clip.Lane)
	if group == nil {
		return false
	}
	group.Clips = append(group.Clips, clip)
	return true
}

// RemoveClips deletes every clip whose id is in ids. Returns the number of
// clips removed.
func (s *State) RemoveClips(ids map[string]struct{}) int {
	removed := 0
	for _, group := range s.Lanes {
		kept := group.Clips[:0]
		for _, clip := range group.Clips {
			if _, ok := ids[clip.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, clip)
		}
		group.Clips = kept
	}
	return removed
}

// ClipIDs returns the ids of every clip on the timeline in lane order.
func (s *State) ClipIDs() []string {
	var ids []string
	for _, group := range s.Lanes {
		for _, clip := range group.Clips {
			ids = append(ids, clip.ID)
		}
	}
	return ids
}

// ClipCount returns the total number of clips across all lanes.
func (s *State) ClipCount() int {
	count := 0
	for _, group := range s.Lanes {
		count += len(group.Clips)
	}
	return count
}

// Duration returns the time of the right-most clip edge.
func (s *State) Duration() float64 {
	var max float64
	for _, group := range s.Lanes {
		for _, clip := range group.Clips {
			if end := clip.End(); end > max {
				max = end
			}
		}
	}
	return max
}
