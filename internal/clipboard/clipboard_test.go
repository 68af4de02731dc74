package clipboard_test

import (
	"math"
	"testing"

	"soundlab/internal/clipboard"
	"soundlab/internal/testsupport"
	"soundlab/internal/timeline"
)

func selection(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestCopyNormalizesEarliestClipToZero(t *testing.T) {
	state := testsupport.NewState(
		testsupport.NewClip("a", timeline.LaneMusic, 10, 2),
		testsupport.NewClip("b", timeline.LaneMusic, 15, 2),
		testsupport.NewClip("c", timeline.LaneSFX, 20, 2),
	)

	board := clipboard.New()
	if got := board.Copy(state, selection("a", "b", "c")); got != 3 {
		t.Fatalf("Copy returned %d, want 3", got)
	}

	pasted := board.Paste(state, 100)
	if len(pasted) != 3 {
		t.Fatalf("Paste returned %d ids, want 3", len(pasted))
	}

	wantStarts := map[string]float64{}
	for _, id := range pasted {
		clip, _ := state.FindClip(id)
		if clip == nil {
			t.Fatalf("pasted clip %s missing from state", id)
		}
		wantStarts[clip.Name] = clip.StartTime
	}
	for name, want := range map[string]float64{"a": 100, "b": 105, "c": 110} {
		if got := wantStarts[name]; math.Abs(got-want) > 1e-9 {
			t.Errorf("pasted %s starts at %v, want %v", name, got, want)
		}
	}
}

func TestPastePreservesLaneAndAssignsFreshIDs(t *testing.T) {
	state := testsupport.NewState(
		testsupport.NewClip("a", timeline.LaneVoice, 5, 3),
	)

	board := clipboard.New()
	board.Copy(state, selection("a"))
	pasted := board.Paste(state, 50)
	if len(pasted) != 1 {
		t.Fatalf("Paste returned %d ids, want 1", len(pasted))
	}
	if pasted[0] == "a" {
		t.Fatal("pasted clip must get a fresh id")
	}
	clip, group := state.FindClip(pasted[0])
	if clip == nil || group.Lane != timeline.LaneVoice {
		t.Fatalf("pasted clip landed on lane %v, want voice", group.Lane)
	}
	if state.ClipCount() != 2 {
		t.Fatalf("clip count = %d, want 2", state.ClipCount())
	}
}

func TestPasteEmptyClipboardIsNoOp(t *testing.T) {
	state := testsupport.NewState()
	board := clipboard.New()
	if ids := board.Paste(state, 10); ids != nil {
		t.Fatalf("empty clipboard pasted %v", ids)
	}
	if board.Copy(state, nil) != 0 {
		t.Fatal("copy of empty selection must return 0")
	}
}

func TestCopyIsSnapshotNotReference(t *testing.T) {
	original := testsupport.NewClip("a", timeline.LaneMusic, 10, 2)
	state := testsupport.NewState(original)

	board := clipboard.New()
	board.Copy(state, selection("a"))

	// Mutating the source after copy must not affect what pastes.
	original.StartTime = 99
	original.Gain = 0.1

	pasted := board.Paste(state, 0)
	clip, _ := state.FindClip(pasted[0])
	if clip.StartTime != 0 || clip.Gain != 1 {
		t.Fatalf("paste reflected post-copy mutation: start=%v gain=%v", clip.StartTime, clip.Gain)
	}
}

func TestSplitDividesClipAtPlayhead(t *testing.T) {
	clip := testsupport.NewClip("a", timeline.LaneMusic, 10, 6)
	clip.FadeIn = 0.5
	clip.FadeOut = 0.5
	state := testsupport.NewState(clip)

	if got := clipboard.Split(state, selection("a"), 13); got != 1 {
		t.Fatalf("Split returned %d, want 1", got)
	}

	group := state.Group(timeline.LaneMusic)
	if len(group.Clips) != 2 {
		t.Fatalf("lane has %d clips after split, want 2", len(group.Clips))
	}

	left, right := group.Clips[0], group.Clips[1]
	if left.ID != "a" {
		t.Fatalf("left half id = %s, want original id", left.ID)
	}
	if right.ID == "a" {
		t.Fatal("right half must get a fresh id")
	}
	if left.StartTime != 10 || math.Abs(left.Duration-3) > 1e-9 {
		t.Fatalf("left geometry = (%v,%v), want (10,3)", left.StartTime, left.Duration)
	}
	if right.StartTime != 13 || math.Abs(right.Duration-3) > 1e-9 {
		t.Fatalf("right geometry = (%v,%v), want (13,3)", right.StartTime, right.Duration)
	}
	if left.FadeOut != 0 {
		t.Fatal("left half must lose its fade-out at the cut")
	}
	if right.FadeIn != 0 {
		t.Fatal("right half must lose its fade-in at the cut")
	}
	if left.FadeIn != 0.5 || right.FadeOut != 0.5 {
		t.Fatal("outer fades must survive the cut")
	}
}

func TestSplitRespectsEdgeMargin(t *testing.T) {
	state := testsupport.NewState(testsupport.NewClip("a", timeline.LaneMusic, 10, 6))

	for _, playhead := range []float64{10, 10.05, 16, 15.95, 9, 17} {
		if got := clipboard.Split(state, selection("a"), playhead); got != 0 {
			t.Errorf("Split at %v returned %d, want 0", playhead, got)
		}
	}
	if state.ClipCount() != 1 {
		t.Fatalf("clip count = %d, want 1 (no splits)", state.ClipCount())
	}
}

func TestSplitSkipsLockedClips(t *testing.T) {
	clip := testsupport.NewClip("a", timeline.LaneMusic, 10, 6)
	clip.Locked = true
	state := testsupport.NewState(clip)

	if got := clipboard.Split(state, selection("a"), 13); got != 0 {
		t.Fatalf("Split returned %d, want 0 for a locked clip", got)
	}
	if state.ClipCount() != 1 {
		t.Fatal("locked clip must be untouched")
	}
}
