// Package testsupport provides shared fixtures for soundlab tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"soundlab/internal/audio"
	"soundlab/internal/config"
	"soundlab/internal/session"
	"soundlab/internal/timeline"
	"soundlab/internal/wav"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SessionDir = filepath.Join(base, "sessions")
	cfg.Paths.AssetDir = filepath.Join(base, "assets")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Render.PollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithGrid overrides the editor grid settings on the test config.
func WithGrid(size float64, snapping bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Editor.GridSize = size
		cfg.Editor.Snapping = snapping
	}
}

// MustOpenStore opens a session store backed by the test config and closes
// it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewClip builds a clip with sane defaults for tests.
func NewClip(id string, lane timeline.Lane, start, duration float64) *timeline.Clip {
	return &timeline.Clip{
		ID:        id,
		AssetID:   id,
		Lane:      lane,
		StartTime: start,
		Duration:  duration,
		Name:      id,
		Gain:      1,
	}
}

// NewState builds a timeline populated with the given clips.
func NewState(clips ...*timeline.Clip) *timeline.State {
	state := timeline.NewState()
	for _, clip := range clips {
		state.AddClip(clip)
	}
	return state
}

// WriteWAV writes a constant-amplitude mono WAV asset into dir so render
// tests can resolve it by asset id.
func WriteWAV(t testing.TB, dir, assetID string, seconds float64, amplitude float32) string {
	t.Helper()

	const rate = 44100
	frames := int(seconds * rate)
	buf := audio.NewBuffer(1, frames, rate)
	for i := 0; i < frames; i++ {
		buf.Data[0][i] = amplitude
	}

	path := filepath.Join(dir, assetID+".wav")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, wav.Encode(buf), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	return path
}
