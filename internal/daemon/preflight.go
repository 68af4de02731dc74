package daemon

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"soundlab/internal/config"
)

// checkExportSpace verifies the export directory has enough free space for
// mixdown output before the daemon starts accepting render jobs.
func checkExportSpace(cfg *config.Config) error {
	dir := cfg.Paths.ExportDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("statfs %s: %w", dir, err)
	}

	freeMiB := stat.Bavail * uint64(stat.Bsize) / (1024 * 1024)
	if freeMiB < uint64(cfg.Render.MinFreeMiB) {
		return fmt.Errorf("export directory %s has %d MiB free, need at least %d MiB", dir, freeMiB, cfg.Render.MinFreeMiB)
	}
	return nil
}
