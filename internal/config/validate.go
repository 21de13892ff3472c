package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	_ "time/tzdata"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrigin(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateBook(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrigin() error {
	if err := validateAbsoluteURL("origin.base_url", c.Origin.BaseURL); err != nil {
		return err
	}
	if err := validateAbsoluteURL("origin.api_url", c.Origin.APIURL); err != nil {
		return err
	}
	if c.Origin.RequestIntervalMS < 0 {
		return errors.New("origin.request_interval_ms must be zero or positive")
	}
	if _, err := c.OriginLocation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.TimeoutSeconds <= 0 {
		return errors.New("images.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBook() error {
	if c.Book.SectionSizeLimit <= 0 {
		return errors.New("book.section_size_limit must be positive")
	}
	if _, err := language.Parse(c.Book.Language); err != nil {
		return fmt.Errorf("book.language %q is not a valid language tag: %w", c.Book.Language, err)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
}

func validateAbsoluteURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
