package mixer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"soundlab/internal/logging"
	"soundlab/internal/render"
	"soundlab/internal/services"
	"soundlab/internal/wav"
)

// Export renders the current timeline offline and writes a WAV file named
// <context>-<timestamp>.wav into the export directory. Solo and mute states
// apply exactly as they would during playback. A failed render touches
// neither the timeline nor the export directory.
func (m *Mixer) Export(ctx context.Context, source render.Source, name string) (string, error) {
	m.mu.Lock()
	state := m.state.Clone()
	sampleRate := m.sampleRate
	channels := m.channels
	exportDir := m.exportDir
	m.mu.Unlock()

	opts := render.Options{
		SampleRate: sampleRate,
		Channels:   channels,
		SoloLanes:  m.SoloLanes(),
	}
	buf, err := render.NewRenderer(source).Render(ctx, state, opts)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "mixer", "export", "offline render failed", err)
	}

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "mixer", "export", "create export directory", err)
	}

	path := filepath.Join(exportDir, ExportFilename(name, time.Now()))
	if err := os.WriteFile(path, wav.Encode(buf), 0o644); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "mixer", "export", "write wav", err)
	}

	m.logger.Info("mixdown exported",
		logging.String("path", path),
		logging.Float64("seconds", buf.Duration()),
	)
	return path, nil
}

// ExportFilename builds the <context>-<timestamp>.wav name.
func ExportFilename(name string, at time.Time) string {
	cleaned := strings.TrimSpace(strings.ToLower(name))
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '-'
		default:
			return -1
		}
	}, cleaned)
	if cleaned == "" {
		cleaned = "mixdown"
	}
	return fmt.Sprintf("%s-%d.wav", cleaned, at.Unix())
}
