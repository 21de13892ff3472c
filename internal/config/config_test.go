package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"glowficdl/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "glowfic-dl")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if filepath.Base(cfg.Paths.CookieFile) != "cookie" {
		t.Fatalf("unexpected cookie file: %q", cfg.Paths.CookieFile)
	}
	if cfg.Cache.Enabled {
		t.Fatal("expected chapter cache disabled by default")
	}
	wantCache := filepath.Join(tempHome, ".cache", "glowfic-dl", "chapters.db")
	if cfg.Cache.Path != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Cache.Path, wantCache)
	}
	if cfg.Origin.BaseURL != "https://glowfic.com" {
		t.Fatalf("unexpected base url: %q", cfg.Origin.BaseURL)
	}
	if cfg.RequestInterval() != time.Second {
		t.Fatalf("unexpected request interval: %v", cfg.RequestInterval())
	}
	if cfg.ImageTimeout() != 15*time.Second {
		t.Fatalf("unexpected image timeout: %v", cfg.ImageTimeout())
	}
	if cfg.Book.SectionSizeLimit != 200000 {
		t.Fatalf("unexpected section size limit: %d", cfg.Book.SectionSizeLimit)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.LockPath() != filepath.Join(wantState, "glowfic-dl.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	loc, err := cfg.OriginLocation()
	if err != nil {
		t.Fatalf("OriginLocation returned error: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Fatalf("unexpected location: %q", loc.String())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
			LogDir    string `toml:"log_dir"`
		} `toml:"paths"`
		Origin struct {
			BaseURL           string `toml:"base_url"`
			RequestIntervalMS int    `toml:"request_interval_ms"`
		} `toml:"origin"`
		Book struct {
			Language string `toml:"language"`
		} `toml:"book"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}

	var p payload
	p.Paths.OutputDir = "~/books"
	p.Paths.LogDir = "~/logs"
	p.Origin.BaseURL = "http://127.0.0.1:9999/"
	p.Origin.RequestIntervalMS = 0
	p.Book.Language = "en-GB"
	p.Logging.Format = "JSON"

	data, err := toml.Marshal(p)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(tempHome, "custom.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected custom config to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "books") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Origin.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Origin.BaseURL)
	}
	if cfg.Origin.APIURL != "https://glowfic.com/api/v1" {
		t.Fatalf("expected default api url, got %q", cfg.Origin.APIURL)
	}
	if cfg.RequestInterval() != 0 {
		t.Fatalf("expected zero request interval, got %v", cfg.RequestInterval())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := "[cache]\nenabled = false\n\n[book]\nsection_size_limit = 5000\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GLOWFIC_DL_CACHE_ENABLED", "true")
	t.Setenv("GLOWFIC_DL_SECTION_SIZE_LIMIT", "1234")
	t.Setenv("GLOWFIC_DL_ORIGIN_TIMEZONE", "UTC")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected cache enabled from environment")
	}
	if cfg.Book.SectionSizeLimit != 1234 {
		t.Fatalf("expected section size from environment, got %d", cfg.Book.SectionSizeLimit)
	}
	if cfg.Origin.Timezone != "UTC" {
		t.Fatalf("expected timezone from environment, got %q", cfg.Origin.Timezone)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "section_size_limit") {
		t.Fatal("sample config missing book settings")
	}

	t.Setenv("HOME", dir)
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"relative base url", func(c *config.Config) { c.Origin.BaseURL = "glowfic.com" }, "origin.base_url"},
		{"negative interval", func(c *config.Config) { c.Origin.RequestIntervalMS = -1 }, "request_interval_ms"},
		{"unknown timezone", func(c *config.Config) { c.Origin.Timezone = "Mars/Olympus" }, "origin.timezone"},
		{"zero image timeout", func(c *config.Config) { c.Images.TimeoutSeconds = 0 }, "images.timeout_seconds"},
		{"zero section limit", func(c *config.Config) { c.Book.SectionSizeLimit = 0 }, "section_size_limit"},
		{"bad language", func(c *config.Config) { c.Book.Language = "not a tag!" }, "book.language"},
		{"cache without path", func(c *config.Config) { c.Cache.Enabled = true; c.Cache.Path = " " }, "cache.path"},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}
