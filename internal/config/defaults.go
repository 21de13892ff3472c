package config

const (
	defaultOutputDir         = "."
	defaultStateDir          = "~/.local/share/glowfic-dl"
	defaultCookieFile        = "cookie"
	defaultOriginBaseURL     = "https://glowfic.com"
	defaultOriginAPIURL      = "https://glowfic.com/api/v1"
	defaultOriginTimezone    = "America/New_York"
	defaultRequestIntervalMS = 1000
	defaultUserAgent         = "glowfic-dl/dev"
	defaultImageTimeout      = 15
	defaultBookLanguage      = "en"
	defaultSectionSizeLimit  = 200000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StateDir:   defaultStateDir,
			CookieFile: defaultCookieFile,
		},
		Origin: Origin{
			BaseURL:           defaultOriginBaseURL,
			APIURL:            defaultOriginAPIURL,
			Timezone:          defaultOriginTimezone,
			RequestIntervalMS: defaultRequestIntervalMS,
			UserAgent:         defaultUserAgent,
		},
		Images: Images{
			TimeoutSeconds: defaultImageTimeout,
		},
		Book: Book{
			Language:         defaultBookLanguage,
			SectionSizeLimit: defaultSectionSizeLimit,
		},
		Cache: Cache{
			Path: defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
