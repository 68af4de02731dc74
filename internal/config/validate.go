package config

import (
	"errors"
	"fmt"

	"soundlab/internal/timeline"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	if err := c.validateDucking(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SessionDir == "" {
		return errors.New("paths.session_dir must be set")
	}
	if c.Paths.ExportDir == "" {
		return errors.New("paths.export_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.SampleRate {
	case 44100, 48000:
	default:
		return fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.MasterVolume < 0 || c.Audio.MasterVolume > 1 {
		return errors.New("audio.master_volume must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateEditor() error {
	if c.Editor.GridSize < 0 {
		return errors.New("editor.grid_size must not be negative")
	}
	if c.Editor.PixelsPerSecond <= 0 {
		return errors.New("editor.pixels_per_second must be positive")
	}
	return nil
}

func (c *Config) validateDucking() error {
	if _, ok := timeline.ParseLane(c.Ducking.SourceLane); !ok {
		return fmt.Errorf("ducking.source_lane %q is not a known lane", c.Ducking.SourceLane)
	}
	if _, ok := timeline.ParseLane(c.Ducking.TargetLane); !ok {
		return fmt.Errorf("ducking.target_lane %q is not a known lane", c.Ducking.TargetLane)
	}
	if c.Ducking.SourceLane == c.Ducking.TargetLane {
		return errors.New("ducking.source_lane and ducking.target_lane must differ")
	}
	if c.Ducking.Amount < 0 || c.Ducking.Amount > 1 {
		return errors.New("ducking.amount must be between 0 and 1")
	}
	if c.Ducking.Attack < 0 || c.Ducking.Release < 0 {
		return errors.New("ducking attack/release must not be negative")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.PollInterval <= 0 {
		return errors.New("render.poll_interval must be positive")
	}
	if c.Render.JobTimeoutSeconds <= 0 {
		return errors.New("render.job_timeout must be positive")
	}
	if c.Render.MinFreeMiB < 0 {
		return errors.New("render.min_free_mib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
