package config

const (
	defaultConfigPath          = "~/.config/storyreel/config.toml"
	defaultDataDir             = "~/.local/share/storyreel"
	defaultLogDir              = "~/.local/share/storyreel/logs"
	defaultAPIBind             = "127.0.0.1:7590"
	defaultAPIURL              = "http://127.0.0.1:7590"
	defaultWriteTimeoutSeconds = 330
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-2.5-flash"
	defaultLLMReferer          = "https://github.com/storyreel/storyreel"
	defaultLLMTitle            = "storyreel"
	defaultLLMTimeoutSeconds   = 60
	defaultCaptionMaxTokens    = 256
	defaultStoryMaxTokens      = 2048
	defaultVideoBaseURL        = "https://api-singapore.klingai.com/v1/videos/image2video"
	defaultVideoModelName      = "kling-v2-5-turbo"
	defaultVideoMode           = "pro"
	defaultVideoDuration       = "5"
	defaultVideoCFGScale       = 0.5
	defaultVideoTimeoutSeconds = 30
	defaultFetchTimeoutSeconds = 20
	defaultFrameMaxBytes       = 20 << 20
	defaultFrameMaxDimension   = 1024
	defaultResolvedTTLSeconds  = 86400
	defaultPollInterval        = 4
	defaultPlayerCommand       = "mpv"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind:                defaultAPIBind,
			URL:                 defaultAPIURL,
			WriteTimeoutSeconds: defaultWriteTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			Referer:          defaultLLMReferer,
			Title:            defaultLLMTitle,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			CaptionMaxTokens: defaultCaptionMaxTokens,
			StoryMaxTokens:   defaultStoryMaxTokens,
		},
		Video: Video{
			BaseURL:        defaultVideoBaseURL,
			ModelName:      defaultVideoModelName,
			Mode:           defaultVideoMode,
			Duration:       defaultVideoDuration,
			CFGScale:       defaultVideoCFGScale,
			TimeoutSeconds: defaultVideoTimeoutSeconds,
		},
		Frames: Frames{
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxBytes:            defaultFrameMaxBytes,
			MaxDimension:        defaultFrameMaxDimension,
		},
		Cache: Cache{
			ResolvedTTLSeconds: defaultResolvedTTLSeconds,
		},
		Poll: Poll{
			IntervalSeconds: defaultPollInterval,
		},
		Player: Player{
			Command: defaultPlayerCommand,
			Args:    []string{"--really-quiet", "--no-terminal"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
