package testsupport

import (
	"path/filepath"
	"testing"

	"glowficdl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Request pacing is disabled so tests never sleep on the limiter.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = ""
	cfgVal.Paths.CookieFile = filepath.Join(base, "cookie")
	cfgVal.Origin.RequestIntervalMS = 0
	cfgVal.Images.TimeoutSeconds = 2
	cfgVal.Cache.Path = filepath.Join(base, "cache", "chapters.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOrigin points the config at a fake origin server.
func WithOrigin(origin *Origin) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Origin.BaseURL = origin.URL("")
		b.cfg.Origin.APIURL = origin.URL("/api/v1")
	}
}

// WithCache enables the chapter cache inside the test directory.
func WithCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = true
	}
}

// WithSectionLimit overrides the per-section byte limit.
func WithSectionLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Book.SectionSizeLimit = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
