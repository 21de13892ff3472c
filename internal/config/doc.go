// Package config loads, normalizes, and validates glowfic-dl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours GLOWFIC_DL_* environment overrides.
// The Config type centralizes every knob the CLI and archive pipeline need:
// output and state directories, the session cookie file, origin endpoints and
// pacing, image timeouts, book metadata, and the optional chapter cache.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
