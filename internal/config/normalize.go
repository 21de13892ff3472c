package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrigin()
	c.normalizeBook()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CookieFile, err = expandPath(strings.TrimSpace(c.Paths.CookieFile)); err != nil {
		return fmt.Errorf("paths.cookie_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrigin() {
	c.Origin.BaseURL = strings.TrimRight(strings.TrimSpace(c.Origin.BaseURL), "/")
	if c.Origin.BaseURL == "" {
		c.Origin.BaseURL = defaultOriginBaseURL
	}
	c.Origin.APIURL = strings.TrimRight(strings.TrimSpace(c.Origin.APIURL), "/")
	if c.Origin.APIURL == "" {
		c.Origin.APIURL = c.Origin.BaseURL + "/api/v1"
	}
	c.Origin.Timezone = strings.TrimSpace(c.Origin.Timezone)
	if c.Origin.Timezone == "" {
		c.Origin.Timezone = defaultOriginTimezone
	}
	c.Origin.UserAgent = strings.TrimSpace(c.Origin.UserAgent)
	if c.Origin.UserAgent == "" {
		c.Origin.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeBook() {
	c.Book.Language = strings.TrimSpace(c.Book.Language)
	if c.Book.Language == "" {
		c.Book.Language = defaultBookLanguage
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath()
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
