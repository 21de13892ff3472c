package chaptercache_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"glowficdl/internal/chaptercache"
	"glowficdl/internal/glowfic"
	"glowficdl/internal/testsupport"
)

var _ glowfic.ChapterStore = (*chaptercache.Cache)(nil)

func TestStoreAndLookupRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	cache := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	stamp := time.Date(2023, 5, 6, 7, 8, 9, 123000000, time.UTC)
	location := "https://glowfic.com/posts/1"
	if err := cache.Store(ctx, location, stamp, "Title", []byte("<html>one</html>")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	body, ok, err := cache.Lookup(ctx, location, stamp.In(time.FixedZone("EST", -5*3600)))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok || string(body) != "<html>one</html>" {
		t.Fatalf("expected hit with stored body, got ok=%v body=%q", ok, body)
	}
}

func TestLookupMissesOnNewerStamp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	cache := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	location := "https://glowfic.com/posts/2"
	if err := cache.Store(ctx, location, old, "Old", []byte("old")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, ok, err := cache.Lookup(ctx, location, old.Add(time.Minute)); err != nil || ok {
		t.Fatalf("expected miss for newer stamp, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := cache.Lookup(ctx, "https://glowfic.com/posts/3", old); err != nil || ok {
		t.Fatalf("expected miss for unknown location, got ok=%v err=%v", ok, err)
	}

	newer := old.Add(time.Hour)
	if err := cache.Store(ctx, location, newer, "New", []byte("new")); err != nil {
		t.Fatalf("Store newer: %v", err)
	}
	if _, ok, _ := cache.Lookup(ctx, location, old); ok {
		t.Fatal("replaced entry should no longer match the old stamp")
	}
	body, ok, err := cache.Lookup(ctx, location, newer)
	if err != nil || !ok || string(body) != "new" {
		t.Fatalf("expected refreshed body, got ok=%v body=%q err=%v", ok, body, err)
	}
}

func TestStatsAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	cache := testsupport.MustOpenCache(t, cfg)
	ctx := context.Background()

	stamp := time.Date(2022, 2, 2, 2, 2, 2, 0, time.UTC)
	for i, body := range []string{"aaaa", "bbbbbb"} {
		location := fmt.Sprintf("https://glowfic.com/posts/%d", i+1)
		if err := cache.Store(ctx, location, stamp, "t", []byte(body)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 2 || stats.Bytes != 10 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Path != cfg.Cache.Path {
		t.Fatalf("expected path %q, got %q", cfg.Cache.Path, stats.Path)
	}
	if stats.Oldest.IsZero() || stats.Newest.Before(stats.Oldest) {
		t.Fatalf("unexpected fetch range %v..%v", stats.Oldest, stats.Newest)
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	stats, err = cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if stats.Entries != 0 || stats.Bytes != 0 || !stats.Oldest.IsZero() {
		t.Fatalf("expected empty cache, got %+v", stats)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	ctx := context.Background()
	stamp := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	first, err := chaptercache.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Store(ctx, "loc", stamp, "t", []byte("body")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenCache(t, cfg)
	if _, ok, err := second.Lookup(ctx, "loc", stamp); err != nil || !ok {
		t.Fatalf("expected entry to survive reopen, ok=%v err=%v", ok, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache())
	cache := testsupport.MustOpenCache(t, cfg)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.Cache.Path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := chaptercache.Open(cfg); !errors.Is(err, chaptercache.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Cache.Path = ""
	if _, err := chaptercache.Open(cfg); err == nil {
		t.Fatal("expected error for empty cache path")
	}
}
