package testsupport

import (
	"testing"

	"glowficdl/internal/chaptercache"
	"glowficdl/internal/config"
)

// MustOpenCache opens the config's chapter cache and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *chaptercache.Cache {
	t.Helper()
	cache, err := chaptercache.Open(cfg)
	if err != nil {
		t.Fatalf("chaptercache.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache
}
