package chaptercache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"glowficdl/internal/config"
)

// Cache is a SQLite-backed chapter page store.
type Cache struct {
	db   *sql.DB
	path string
}

// Stats summarizes the cache contents.
type Stats struct {
	Path     string
	Entries  int
	Bytes    int64
	Oldest   time.Time
	Newest   time.Time
	FileSize int64
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	stampLayout = time.RFC3339Nano
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the cache database named by the config.
func Open(cfg *config.Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Cache.Path) == "" {
		return nil, errors.New("cache path is not configured")
	}
	return OpenPath(cfg.Cache.Path)
}

// OpenPath opens the cache database at path, creating it when missing.
func OpenPath(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the stored body for location when it was fetched at stamp.
func (c *Cache) Lookup(ctx context.Context, location string, stamp time.Time) ([]byte, bool, error) {
	var body []byte
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			`SELECT body FROM chapters WHERE location = ? AND stamp = ?`,
			location, formatStamp(stamp),
		).Scan(&body)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", location, err)
	}
	return body, true, nil
}

// Store records body as the page for location at stamp, replacing any older copy.
func (c *Cache) Store(ctx context.Context, location string, stamp time.Time, title string, body []byte) error {
	now := time.Now().UTC().Format(stampLayout)
	err := retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, `
INSERT INTO chapters (location, stamp, title, body, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(location) DO UPDATE SET
    stamp = excluded.stamp,
    title = excluded.title,
    body = excluded.body,
    fetched_at = excluded.fetched_at`,
			location, formatStamp(stamp), title, body, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("store %s: %w", location, err)
	}
	return nil
}

// Stats reports entry counts and sizes.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: c.path}
	var (
		oldest sql.NullString
		newest sql.NullString
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(LENGTH(body)), 0), MIN(fetched_at), MAX(fetched_at) FROM chapters`,
	).Scan(&stats.Entries, &stats.Bytes, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(stampLayout, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(stampLayout, newest.String)
	}
	if info, err := os.Stat(c.path); err == nil {
		stats.FileSize = info.Size()
	}
	return stats, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := c.db.ExecContext(ctx, `DELETE FROM chapters`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `VACUUM`); err != nil {
		return removed, fmt.Errorf("vacuum cache: %w", err)
	}
	return removed, nil
}

func formatStamp(stamp time.Time) string {
	return stamp.UTC().Format(stampLayout)
}
