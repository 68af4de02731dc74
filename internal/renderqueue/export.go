package renderqueue

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"soundlab/internal/audio"
	"soundlab/internal/mixer"
	"soundlab/internal/wav"
)

// writeExport encodes the rendered buffer and writes it into the export
// directory using the <context>-<timestamp>.wav pattern.
func writeExport(dir, name string, buf *audio.Buffer) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, mixer.ExportFilename(name, time.Now()))
	if err := os.WriteFile(path, wav.Encode(buf), 0o644); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}
	return path, nil
}
