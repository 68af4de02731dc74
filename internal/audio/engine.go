package audio

import "soundlab/internal/timeline"

// Engine is the playback contract the mixer depends on. Implementations
// are expected to be safe for use from the mixer's transport goroutines.
type Engine interface {
	// Init prepares the engine; it must be called before Play.
	Init() error
	// Play starts playback of the given clips from startTime with the
	// supplied per-lane mute states.
	Play(clips []*timeline.Clip, startTime float64, laneMutes map[timeline.Lane]bool) error
	// Stop halts playback. Stopping an idle engine is a no-op.
	Stop()
	// CurrentTime reports the transport position in seconds.
	CurrentTime() float64
	// SetMasterVolume sets the output gain in [0,1].
	SetMasterVolume(volume float64)
	// SetLaneMute mutes or unmutes one lane during playback.
	SetLaneMute(lane timeline.Lane, muted bool)
	// LanePeakLevel reports the current peak level for a lane in [0,1].
	LanePeakLevel(lane timeline.Lane) float64
	// MasterPeakLevel reports the current master peak level in [0,1].
	MasterPeakLevel() float64
	// MasterFrequencyData returns coarse frequency-domain magnitudes as
	// bytes, one per band.
	MasterFrequencyData() []byte
	// Dispose releases engine resources. The engine is unusable afterwards.
	Dispose()
}
