package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "GLOWFIC_DL_"

// Paths contains directory and file locations.
type Paths struct {
	OutputDir  string `toml:"output_dir" env:"OUTPUT_DIR"`
	StateDir   string `toml:"state_dir" env:"STATE_DIR"`
	LogDir     string `toml:"log_dir" env:"LOG_DIR"`
	CookieFile string `toml:"cookie_file" env:"COOKIE_FILE"`
}

// Origin describes the Glowfic Constellation endpoints and request pacing.
type Origin struct {
	BaseURL           string `toml:"base_url" env:"ORIGIN_BASE_URL"`
	APIURL            string `toml:"api_url" env:"ORIGIN_API_URL"`
	Timezone          string `toml:"timezone" env:"ORIGIN_TIMEZONE"`
	RequestIntervalMS int    `toml:"request_interval_ms" env:"ORIGIN_REQUEST_INTERVAL_MS"`
	UserAgent         string `toml:"user_agent" env:"USER_AGENT"`
}

// Images contains configuration for avatar downloads.
type Images struct {
	TimeoutSeconds int `toml:"timeout_seconds" env:"IMAGE_TIMEOUT_SECONDS"`
}

// Book contains output document settings.
type Book struct {
	Language         string `toml:"language" env:"BOOK_LANGUAGE"`
	SectionSizeLimit int    `toml:"section_size_limit" env:"SECTION_SIZE_LIMIT"`
}

// Cache contains configuration for the persistent chapter cache.
type Cache struct {
	Enabled bool   `toml:"enabled" env:"CACHE_ENABLED"` // Default: false
	Path    string `toml:"path" env:"CACHE_PATH"`       // Default: ~/.cache/glowfic-dl/chapters.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"LOG_FORMAT"`
	Level  string `toml:"level" env:"LOG_LEVEL"`
}

// Config encapsulates all configuration values for glowfic-dl.
//
// Configuration sections by subsystem:
//   - Paths: output, state and log directories plus the cookie file
//   - Origin: site and API base URLs, listing time zone, request interval
//   - Images: avatar download timeout
//   - Book: document language and section size limit
//   - Cache: chapter page cache keyed by location and timestamp
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Origin  Origin  `toml:"origin"`
	Images  Images  `toml:"images"`
	Book    Book    `toml:"book"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/glowfic-dl/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, "", false, fmt.Errorf("parse environment overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("glowfic-dl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a download run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.StateDir}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", filepath.Dir(c.Cache.Path), err)
		}
	}
	return nil
}

// RequestInterval returns the minimum spacing between origin requests.
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.Origin.RequestIntervalMS) * time.Millisecond
}

// ImageTimeout returns the per-request timeout for avatar downloads.
func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.Images.TimeoutSeconds) * time.Second
}

// OriginLocation loads the time zone listing timestamps are displayed in.
func (c *Config) OriginLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Origin.Timezone)
	if err != nil {
		return nil, fmt.Errorf("origin.timezone: %w", err)
	}
	return loc, nil
}

// LockPath returns the single-instance lock file inside the state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "glowfic-dl.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "glowfic-dl", "chapters.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/glowfic-dl/chapters.db"
	}
	return filepath.Join(home, ".cache", "glowfic-dl", "chapters.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
