package config

const (
	defaultDataDir                  = "~/.local/share/slate/data"
	defaultLogDir                   = "~/.local/share/slate/logs"
	defaultScriptsDir               = "~/.local/share/slate/scripts"
	defaultPreviewDir               = "~/.local/share/slate/previews"
	defaultAPIBind                  = "127.0.0.1:7419"
	defaultRendererBinary           = "aerender"
	defaultRendererTimeoutSeconds   = 900
	defaultConfidenceThreshold      = 0.55
	defaultLowConfidenceFloor       = 0.75
	defaultAspectRatioTolerance     = 0.02
	defaultMinResolutionRatio       = 0.7
	defaultPreprocessTimeoutSeconds = 600
	defaultMaxConcurrentPreprocess  = 4
	defaultNotifyRequestTimeout     = 10
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			ScriptsDir: defaultScriptsDir,
			PreviewDir: defaultPreviewDir,
			APIBind:    defaultAPIBind,
		},
		Renderer: Renderer{
			Binary:         defaultRendererBinary,
			TimeoutSeconds: defaultRendererTimeoutSeconds,
		},
		Matching: Matching{
			ConfidenceThreshold: defaultConfidenceThreshold,
			LowConfidenceFloor:  defaultLowConfidenceFloor,
		},
		Validation: Validation{
			AspectRatioTolerance: defaultAspectRatioTolerance,
			MinResolutionRatio:   defaultMinResolutionRatio,
		},
		Pipeline: Pipeline{
			PreprocessTimeoutSeconds: defaultPreprocessTimeoutSeconds,
			MaxConcurrentPreprocess:  defaultMaxConcurrentPreprocess,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Review:         true,
			Approval:       true,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
