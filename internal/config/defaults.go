package config

const (
	defaultSessionDir      = "~/.local/share/soundlab/sessions"
	defaultAssetDir        = "~/.local/share/soundlab/assets"
	defaultExportDir       = "~/.local/share/soundlab/exports"
	defaultLogDir          = "~/.local/share/soundlab/logs"
	defaultAPIBind         = "127.0.0.1:7733"
	defaultSampleRate      = 44100
	defaultChannels        = 2
	defaultMasterVolume    = 1.0
	defaultGridSize        = 0.5
	defaultPixelsPerSecond = 100.0
	defaultDuckSourceLane  = "voice"
	defaultDuckTargetLane  = "music"
	defaultDuckAmount      = 0.25
	defaultDuckAttack      = 0.1
	defaultDuckRelease     = 0.4
	defaultPollInterval    = 2
	defaultJobTimeout      = 600
	defaultMinFreeMiB      = 256
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SessionDir: defaultSessionDir,
			AssetDir:   defaultAssetDir,
			ExportDir:  defaultExportDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Audio: Audio{
			SampleRate:   defaultSampleRate,
			Channels:     defaultChannels,
			MasterVolume: defaultMasterVolume,
		},
		Editor: Editor{
			GridSize:        defaultGridSize,
			Snapping:        true,
			PixelsPerSecond: defaultPixelsPerSecond,
		},
		Ducking: Ducking{
			Enabled:    false,
			SourceLane: defaultDuckSourceLane,
			TargetLane: defaultDuckTargetLane,
			Amount:     defaultDuckAmount,
			Attack:     defaultDuckAttack,
			Release:    defaultDuckRelease,
		},
		Render: Render{
			PollInterval:      defaultPollInterval,
			JobTimeoutSeconds: defaultJobTimeout,
			MinFreeMiB:        defaultMinFreeMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
