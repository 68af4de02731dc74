package ducking_test

import (
	"math"
	"testing"

	"soundlab/internal/ducking"
	"soundlab/internal/testsupport"
	"soundlab/internal/timeline"
)

func defaultConfig() timeline.DuckingConfig {
	return timeline.DuckingConfig{
		Enabled:    true,
		SourceLane: timeline.LaneVoice,
		TargetLane: timeline.LaneMusic,
		Amount:     0.25,
		Attack:     0.1,
		Release:    0.4,
	}
}

func TestMergeRegionsCollapsesOverlaps(t *testing.T) {
	merged := ducking.MergeRegions([]ducking.Region{
		{Start: 4, End: 10},
		{Start: 0, End: 5},
	})
	if len(merged) != 1 {
		t.Fatalf("merged into %d regions, want 1", len(merged))
	}
	if merged[0].Start != 0 || merged[0].End != 10 {
		t.Fatalf("merged region = %+v, want [0,10)", merged[0])
	}
}

func TestMergeRegionsKeepsDisjointSpans(t *testing.T) {
	merged := ducking.MergeRegions([]ducking.Region{
		{Start: 6, End: 8},
		{Start: 0, End: 2},
	})
	if len(merged) != 2 {
		t.Fatalf("merged into %d regions, want 2", len(merged))
	}
	if merged[0].Start != 0 || merged[1].Start != 6 {
		t.Fatalf("regions not sorted: %+v", merged)
	}

	// Touching regions merge.
	touching := ducking.MergeRegions([]ducking.Region{
		{Start: 0, End: 3},
		{Start: 3, End: 5},
	})
	if len(touching) != 1 || touching[0].End != 5 {
		t.Fatalf("touching regions = %+v, want single [0,5)", touching)
	}
}

func TestComputeBuildsEnvelopeInClipLocalTime(t *testing.T) {
	cfg := defaultConfig()
	state := testsupport.NewState(
		testsupport.NewClip("v", timeline.LaneVoice, 2, 2),  // active [2,4)
		testsupport.NewClip("m", timeline.LaneMusic, 0, 10), // target spans it
	)

	result := ducking.Compute(cfg, state)
	points, ok := result["m"]
	if !ok {
		t.Fatal("expected automation for the overlapped music clip")
	}

	// Local times: edge 0, ramp down at 1.9, duck at 2, hold to 4, recover
	// by 4.4, edge 10.
	wantTimes := []float64{0, 1.9, 2, 4, 4.4, 10}
	if len(points) != len(wantTimes) {
		t.Fatalf("got %d points %v, want %d", len(points), points, len(wantTimes))
	}
	for i, want := range wantTimes {
		if math.Abs(points[i].Time-want) > 1e-9 {
			t.Errorf("point %d time = %v, want %v", i, points[i].Time, want)
		}
	}
	for i, want := range []float64{1, 1, 0.25, 0.25, 1, 1} {
		if math.Abs(points[i].Value-want) > 1e-9 {
			t.Errorf("point %d value = %v, want %v", i, points[i].Value, want)
		}
	}
}

func TestComputeSkipsUntouchedClips(t *testing.T) {
	cfg := defaultConfig()
	state := testsupport.NewState(
		testsupport.NewClip("v", timeline.LaneVoice, 2, 2),
		testsupport.NewClip("far", timeline.LaneMusic, 50, 5),
	)

	result := ducking.Compute(cfg, state)
	if _, ok := result["far"]; ok {
		t.Fatal("clip with no overlap must not receive automation")
	}
}

func TestComputeDisabledOrSilentSourceIsEmpty(t *testing.T) {
	state := testsupport.NewState(
		testsupport.NewClip("m", timeline.LaneMusic, 0, 10),
	)

	cfg := defaultConfig()
	if got := ducking.Compute(cfg, state); len(got) != 0 {
		t.Fatal("silent source lane must produce no automation")
	}

	state.AddClip(testsupport.NewClip("v", timeline.LaneVoice, 0, 2))
	cfg.Enabled = false
	if got := ducking.Compute(cfg, state); len(got) != 0 {
		t.Fatal("disabled config must produce no automation")
	}
}

func TestEnvelopeClampsToClipBounds(t *testing.T) {
	cfg := defaultConfig()
	// The voice region starts before the music clip: the ramp down clamps
	// to the clip's left edge and every point stays inside the local span.
	state := testsupport.NewState(
		testsupport.NewClip("v", timeline.LaneVoice, 0, 6),
		testsupport.NewClip("m", timeline.LaneMusic, 5, 4),
	)

	points := ducking.Compute(cfg, state)["m"]
	if len(points) == 0 {
		t.Fatal("expected automation for the overlapped clip")
	}
	for _, p := range points {
		if p.Time < 0 || p.Time > 4+1e-9 {
			t.Fatalf("point %v escapes the clip's local span [0,4]", p)
		}
	}
	if points[0].Time != 0 || points[0].Value != 0.25 {
		t.Fatalf("clip already ducked at its left edge, got %+v", points[0])
	}
}

func TestFullyCoveredClipDegeneratesAndIsOmitted(t *testing.T) {
	cfg := defaultConfig()
	// A target fully inside one source region collapses to a two-point
	// envelope after dedupe; trivial automation is dropped.
	state := testsupport.NewState(
		testsupport.NewClip("v", timeline.LaneVoice, 0, 20),
		testsupport.NewClip("m", timeline.LaneMusic, 5, 4),
	)

	if _, ok := ducking.Compute(cfg, state)["m"]; ok {
		t.Fatal("degenerate envelope must be omitted")
	}
}
