package timeline

import "testing"

func TestNewStateHasFixedLanes(t *testing.T) {
	s := NewState()
	if len(s.Lanes) != 4 {
		t.Fatalf("lane count = %d, want 4", len(s.Lanes))
	}
	want := []Lane{LaneVoice, LaneMusic, LaneSFX, LaneAmbience}
	for i, lane := range want {
		if s.Lanes[i].Lane != lane {
			t.Fatalf("lane %d = %s, want %s", i, s.Lanes[i].Lane, lane)
		}
	}
}

func TestParseLane(t *testing.T) {
	if lane, ok := ParseLane("  Music "); !ok || lane != LaneMusic {
		t.Fatalf("ParseLane = %s, %v", lane, ok)
	}
	if _, ok := ParseLane("drums"); ok {
		t.Fatal("unknown lane must not parse")
	}
	if _, ok := ParseLane(""); ok {
		t.Fatal("empty lane must not parse")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewState()
	clip := &Clip{
		ID: "a", Lane: LaneMusic, StartTime: 1, Duration: 4, Gain: 1,
		Waveform:   []float64{0.1, 0.2},
		Automation: []AutomationPoint{{Time: 0, Value: 1}},
	}
	s.AddClip(clip)
	s.Group(LaneMusic).Muted = true

	cp := s.Clone()
	cloned, group := cp.FindClip("a")
	if cloned == clip {
		t.Fatal("clone shares clip pointers")
	}
	if !group.Muted {
		t.Fatal("clone lost lane flags")
	}

	cloned.StartTime = 99
	cloned.Waveform[0] = 9
	cloned.Automation[0].Value = 9
	if clip.StartTime != 1 || clip.Waveform[0] != 0.1 || clip.Automation[0].Value != 1 {
		t.Fatal("mutating the clone leaked into the original")
	}
}

func TestAddClipRejectsUnknownLane(t *testing.T) {
	s := NewState()
	if s.AddClip(&Clip{ID: "x", Lane: Lane("drums")}) {
		t.Fatal("unknown lane must be rejected")
	}
	if s.AddClip(nil) {
		t.Fatal("nil clip must be rejected")
	}
}

func TestRemoveClipsAndDuration(t *testing.T) {
	s := NewState()
	s.AddClip(&Clip{ID: "a", Lane: LaneMusic, StartTime: 0, Duration: 3})
	s.AddClip(&Clip{ID: "b", Lane: LaneMusic, StartTime: 5, Duration: 2})
	s.AddClip(&Clip{ID: "c", Lane: LaneVoice, StartTime: 1, Duration: 1})

	if s.Duration() != 7 {
		t.Fatalf("duration = %v, want 7", s.Duration())
	}
	removed := s.RemoveClips(map[string]struct{}{"b": {}, "missing": {}})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if s.ClipCount() != 2 || s.Duration() != 3 {
		t.Fatalf("count = %d duration = %v after removal", s.ClipCount(), s.Duration())
	}

	ids := s.ClipIDs()
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "a" {
		t.Fatalf("ids = %v, want lane order [c a]", ids)
	}
}

func TestClampFades(t *testing.T) {
	clip := &Clip{Duration: 4, FadeIn: 3, FadeOut: -1}
	clip.ClampFades()
	if clip.FadeIn != 2 {
		t.Fatalf("fade-in = %v, want 2", clip.FadeIn)
	}
	if clip.FadeOut != 0 {
		t.Fatalf("fade-out = %v, want 0", clip.FadeOut)
	}
}
