package config

const (
	defaultOutputRoot            = "~/.local/share/animeta/runs"
	defaultLogDir                = "~/.local/share/animeta/logs"
	defaultAPIBind               = "127.0.0.1:7611"
	defaultCatalogBaseURL        = "https://laftel.net"
	defaultCatalogTimeoutSeconds = 10
	defaultCatalogMaxCandidates  = 20
	defaultLLMBaseURL            = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel              = "gpt-4o-mini"
	defaultLLMTimeoutSeconds     = 60
	defaultNotionBaseURL         = "https://api.notion.com/v1"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputRoot: defaultOutputRoot,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			Transport:      "direct",
			TimeoutSeconds: defaultCatalogTimeoutSeconds,
			MaxCandidates:  defaultCatalogMaxCandidates,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notion: Notion{
			BaseURL: defaultNotionBaseURL,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
