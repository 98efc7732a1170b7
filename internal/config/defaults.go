package config

const (
	defaultSupportSubdir    = "QTfiles"
	defaultLogDir           = "~/.local/share/tonearm/logs"
	defaultHistoryPath      = "~/.local/share/tonearm/history.db"
	defaultTimeoutSeconds   = 60
	defaultPollIntervalMS   = 250
	defaultDrainGraceMS     = 2000
	defaultAACRCMode        = "vbr"
	defaultAACBitrateIndex  = 3
	defaultOpusRCMode       = "vbr"
	defaultOpusBitrateIndex = 15
	defaultOpusComplexity   = 10
	defaultOpusFrameSize    = 3
	defaultOpusOptimizeFor  = "auto"
	defaultRenamePattern    = "<BaseName>"
	defaultOverwriteMode    = "keep_both"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AppDir:        defaultAppDir(),
			SupportSubdir: defaultSupportSubdir,
			TempDir:       defaultTempDir(),
			LogDir:        defaultLogDir,
		},
		Tools: Tools{
			Binaries: map[string]string{},
		},
		Runner: Runner{
			TimeoutSeconds: defaultTimeoutSeconds,
			PollIntervalMS: defaultPollIntervalMS,
			DrainGraceMS:   defaultDrainGraceMS,
		},
		AAC: AAC{
			RCMode:       defaultAACRCMode,
			BitrateIndex: defaultAACBitrateIndex,
		},
		Opus: Opus{
			RCMode:       defaultOpusRCMode,
			BitrateIndex: defaultOpusBitrateIndex,
			Complexity:   defaultOpusComplexity,
			FrameSize:    defaultOpusFrameSize,
			OptimizeFor:  defaultOpusOptimizeFor,
		},
		Output: Output{
			RenamePattern: defaultRenamePattern,
			OverwriteMode: defaultOverwriteMode,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
