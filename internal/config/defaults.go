package config

const (
	defaultOutputDir             = "~/clips"
	defaultTempDir               = "~/.cache/clipforge/downloads"
	defaultLogDir                = "~/.local/share/clipforge/logs"
	defaultASRBaseURL            = "http://localhost:8000"
	defaultASRModel              = "openai/whisper-large-v3"
	defaultASRTimeoutSeconds     = 600
	defaultGraderBaseURL         = "http://localhost:8001"
	defaultGraderModel           = "meta-llama/Llama-3.1-8B-Instruct"
	defaultGraderTimeoutSeconds  = 30
	defaultGraderMaxConcurrent   = 4
	defaultSceneThreshold        = 30.0
	defaultWindowDuration        = 90.0
	defaultWindowStride          = 15.0
	defaultSnapThreshold         = 5.0
	defaultWindowMinRatio        = 0.8
	defaultTopK                  = 5
	defaultRenderQuality         = "high"
	defaultRenderMaxConcurrent   = 2
	defaultExtractTimeoutSeconds = 300
	defaultCaptionTimeoutSeconds = 600
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   defaultTempDir,
			LogDir:    defaultLogDir,
		},
		ASR: ASR{
			BaseURL:        defaultASRBaseURL,
			Model:          defaultASRModel,
			TimeoutSeconds: defaultASRTimeoutSeconds,
		},
		Grader: Grader{
			BaseURL:        defaultGraderBaseURL,
			Model:          defaultGraderModel,
			TimeoutSeconds: defaultGraderTimeoutSeconds,
			MaxConcurrent:  defaultGraderMaxConcurrent,
		},
		Scenes: Scenes{
			ContentThreshold: defaultSceneThreshold,
		},
		Windows: Windows{
			DurationSeconds: defaultWindowDuration,
			StrideSeconds:   defaultWindowStride,
			SnapThreshold:   defaultSnapThreshold,
			MinRatio:        defaultWindowMinRatio,
		},
		Ranker: Ranker{
			TopK: defaultTopK,
		},
		Render: Render{
			Quality:               defaultRenderQuality,
			MaxConcurrent:         defaultRenderMaxConcurrent,
			ExtractTimeoutSeconds: defaultExtractTimeoutSeconds,
			CaptionTimeoutSeconds: defaultCaptionTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
