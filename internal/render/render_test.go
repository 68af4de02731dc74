package render_test

import (
	"context"
	"math"
	"testing"

	"soundlab/internal/audio"
	"soundlab/internal/render"
	"soundlab/internal/testsupport"
	"soundlab/internal/timeline"
)

// constantSource yields a fixed-amplitude mono buffer long enough for any
// clip in these tests.
func constantSource(amplitude float32) render.Source {
	return render.SourceFunc(func(clip *timeline.Clip) (*audio.Buffer, error) {
		buf := audio.NewBuffer(1, 44100*20, 44100)
		for i := range buf.Data[0] {
			buf.Data[0][i] = amplitude
		}
		return buf, nil
	})
}

func renderState(t *testing.T, state *timeline.State, opts render.Options, source render.Source) *audio.Buffer {
	t.Helper()
	buf, err := render.NewRenderer(source).Render(context.Background(), state, opts)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf
}

func sampleAt(buf *audio.Buffer, seconds float64) float32 {
	return buf.Data[0][int(seconds*float64(buf.SampleRate))]
}

func TestRenderAppliesGain(t *testing.T) {
	clip := testsupport.NewClip("a", timeline.LaneMusic, 0, 2)
	clip.Gain = 0.5
	state := testsupport.NewState(clip)

	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1}, constantSource(0.8))
	if got := sampleAt(buf, 1); math.Abs(float64(got)-0.4) > 1e-3 {
		t.Fatalf("sample at 1s = %v, want 0.4", got)
	}
}

func TestRenderAppliesLinearFades(t *testing.T) {
	clip := testsupport.NewClip("a", timeline.LaneMusic, 0, 4)
	clip.FadeIn = 1
	clip.FadeOut = 1
	state := testsupport.NewState(clip)

	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1}, constantSource(1))

	if got := sampleAt(buf, 0.5); math.Abs(float64(got)-0.5) > 1e-3 {
		t.Fatalf("mid fade-in sample = %v, want 0.5", got)
	}
	if got := sampleAt(buf, 2); math.Abs(float64(got)-1) > 1e-3 {
		t.Fatalf("body sample = %v, want 1", got)
	}
	if got := sampleAt(buf, 3.5); math.Abs(float64(got)-0.5) > 1e-3 {
		t.Fatalf("mid fade-out sample = %v, want 0.5", got)
	}
}

func TestRenderAppliesAutomation(t *testing.T) {
	clip := testsupport.NewClip("a", timeline.LaneMusic, 0, 4)
	clip.Automation = []timeline.AutomationPoint{
		{Time: 0, Value: 1},
		{Time: 2, Value: 0.25},
		{Time: 4, Value: 0.25},
	}
	state := testsupport.NewState(clip)

	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1}, constantSource(1))

	if got := sampleAt(buf, 1); math.Abs(float64(got)-0.625) > 1e-3 {
		t.Fatalf("mid-ramp sample = %v, want 0.625", got)
	}
	if got := sampleAt(buf, 3); math.Abs(float64(got)-0.25) > 1e-3 {
		t.Fatalf("held sample = %v, want 0.25", got)
	}
}

func TestSoloOverridesMute(t *testing.T) {
	music := testsupport.NewClip("m", timeline.LaneMusic, 0, 2)
	voice := testsupport.NewClip("v", timeline.LaneVoice, 0, 2)
	state := testsupport.NewState(music, voice)
	state.Group(timeline.LaneMusic).Muted = true

	solo := map[timeline.Lane]struct{}{timeline.LaneMusic: {}}
	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1, SoloLanes: solo}, constantSource(0.5))

	// The muted-but-soloed music lane renders; the unmuted voice lane does
	// not. One clip at 0.5 amplitude yields exactly 0.5.
	if got := sampleAt(buf, 1); math.Abs(float64(got)-0.5) > 1e-3 {
		t.Fatalf("sample = %v, want 0.5 from solo lane only", got)
	}
}

func TestMutedLaneAndMutedClipAreSilent(t *testing.T) {
	laneClip := testsupport.NewClip("a", timeline.LaneMusic, 0, 2)
	mutedClip := testsupport.NewClip("b", timeline.LaneVoice, 0, 2)
	mutedClip.Muted = true
	state := testsupport.NewState(laneClip, mutedClip)
	state.Group(timeline.LaneMusic).Muted = true

	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1}, constantSource(1))
	if got := sampleAt(buf, 1); got != 0 {
		t.Fatalf("sample = %v, want silence", got)
	}
}

func TestStackedClipsClampToFullScale(t *testing.T) {
	state := testsupport.NewState(
		testsupport.NewClip("a", timeline.LaneMusic, 0, 2),
		testsupport.NewClip("b", timeline.LaneSFX, 0, 2),
		testsupport.NewClip("c", timeline.LaneAmbience, 0, 2),
	)

	buf := renderState(t, state, render.Options{SampleRate: 44100, Channels: 1}, constantSource(0.9))
	if got := sampleAt(buf, 1); got > 1 {
		t.Fatalf("sample = %v, must clamp to 1", got)
	}
	if got := sampleAt(buf, 1); math.Abs(float64(got)-1) > 1e-6 {
		t.Fatalf("sample = %v, want exactly full scale", got)
	}
}

func TestProgressIsMonotonicAndComplete(t *testing.T) {
	state := testsupport.NewState(
		testsupport.NewClip("a", timeline.LaneMusic, 0, 1),
		testsupport.NewClip("b", timeline.LaneMusic, 1, 1),
		testsupport.NewClip("c", timeline.LaneSFX, 0, 1),
	)

	var reports []int
	opts := render.Options{
		SampleRate: 8000,
		Channels:   1,
		Progress:   func(p int) { reports = append(reports, p) },
	}
	renderState(t, state, opts, render.Silence)

	if len(reports) == 0 || reports[0] != 0 || reports[len(reports)-1] != 100 {
		t.Fatalf("progress reports = %v, want 0..100", reports)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress regressed: %v", reports)
		}
	}
}

func TestRenderHonorsCancellation(t *testing.T) {
	state := testsupport.NewState(testsupport.NewClip("a", timeline.LaneMusic, 0, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := render.NewRenderer(render.Silence).Render(ctx, state, render.Options{SampleRate: 8000, Channels: 1}); err == nil {
		t.Fatal("cancelled context must abort the render")
	}
}

func TestRenderRejectsInvalidOptions(t *testing.T) {
	state := testsupport.NewState()
	if _, err := render.NewRenderer(nil).Render(context.Background(), state, render.Options{SampleRate: 0, Channels: 1}); err == nil {
		t.Fatal("zero sample rate must be rejected")
	}
	if _, err := render.NewRenderer(nil).Render(context.Background(), state, render.Options{SampleRate: 44100, Channels: 0}); err == nil {
		t.Fatal("zero channels must be rejected")
	}
}

func TestDirSourceResolvesAndDegradesToSilence(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteWAV(t, dir, "asset-1", 1, 0.5)
	source := render.NewDirSource(dir)

	known := testsupport.NewClip("c1", timeline.LaneMusic, 0, 1)
	known.AssetID = "asset-1"
	buf, err := source.ClipBuffer(known)
	if err != nil || buf == nil {
		t.Fatalf("expected buffer for existing asset, got %v %v", buf, err)
	}

	missing := testsupport.NewClip("c2", timeline.LaneMusic, 0, 1)
	missing.AssetID = "nope"
	buf, err = source.ClipBuffer(missing)
	if err != nil || buf != nil {
		t.Fatalf("missing asset must degrade to silence, got %v %v", buf, err)
	}
}
