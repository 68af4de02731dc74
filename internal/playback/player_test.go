package playback_test

import (
	"testing"
	"time"

	"soundlab/internal/audio"
	"soundlab/internal/playback"
	"soundlab/internal/render"
	"soundlab/internal/timeline"
)

func toneSource(amplitude float32) render.Source {
	return render.SourceFunc(func(clip *timeline.Clip) (*audio.Buffer, error) {
		buf := audio.NewBuffer(1, 44100*10, 44100)
		for i := range buf.Data[0] {
			buf.Data[0][i] = amplitude
		}
		return buf, nil
	})
}

func testClips() []*timeline.Clip {
	return []*timeline.Clip{
		{ID: "m", AssetID: "m", Lane: timeline.LaneMusic, StartTime: 0, Duration: 8, Gain: 1},
		{ID: "v", AssetID: "v", Lane: timeline.LaneVoice, StartTime: 0, Duration: 8, Gain: 1},
	}
}

func TestPlayerTransportClock(t *testing.T) {
	p := playback.NewPlayer(toneSource(0.5), 44100, 1)
	if err := p.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if err := p.Play(testClips(), 2, nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	pos := p.CurrentTime()
	if pos < 2 || pos > 3 {
		t.Fatalf("position = %v, want just past 2", pos)
	}

	p.Stop()
	frozen := p.CurrentTime()
	time.Sleep(30 * time.Millisecond)
	if p.CurrentTime() != frozen {
		t.Fatal("position must freeze after Stop")
	}
	p.Stop() // idle stop is a no-op
}

func TestPlayerMeteringHonorsMutes(t *testing.T) {
	p := playback.NewPlayer(toneSource(0.5), 44100, 1)
	if err := p.Play(testClips(), 1, map[timeline.Lane]bool{timeline.LaneVoice: true}); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	defer p.Stop()

	if got := p.LanePeakLevel(timeline.LaneMusic); got < 0.4 {
		t.Fatalf("music peak = %v, want signal", got)
	}
	if got := p.LanePeakLevel(timeline.LaneVoice); got != 0 {
		t.Fatalf("muted voice peak = %v, want 0", got)
	}
	if got := p.LanePeakLevel(timeline.LaneSFX); got != 0 {
		t.Fatalf("empty lane peak = %v, want 0", got)
	}
	if got := p.MasterPeakLevel(); got < 0.4 {
		t.Fatalf("master peak = %v, want signal", got)
	}

	p.SetMasterVolume(0)
	if got := p.MasterPeakLevel(); got != 0 {
		t.Fatalf("master peak at zero volume = %v, want 0", got)
	}

	if data := p.MasterFrequencyData(); len(data) != 32 {
		t.Fatalf("frequency bands = %d, want 32", len(data))
	}
}

func TestPlayerStoppedEngineIsSilent(t *testing.T) {
	p := playback.NewPlayer(toneSource(0.5), 44100, 1)
	if got := p.LanePeakLevel(timeline.LaneMusic); got != 0 {
		t.Fatalf("idle lane peak = %v, want 0", got)
	}
	if got := p.MasterPeakLevel(); got != 0 {
		t.Fatalf("idle master peak = %v, want 0", got)
	}

	if err := p.Play(testClips(), 0, nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	p.Dispose()
	if got := p.MasterPeakLevel(); got != 0 {
		t.Fatalf("disposed master peak = %v, want 0", got)
	}
}
