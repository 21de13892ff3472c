package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"glowficdl/internal/config"
	"glowficdl/internal/glowfic"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCookie(t *testing.T) {
	dir := t.TempDir()

	missing := CheckCookie(filepath.Join(dir, "absent"))
	if !missing.Passed {
		t.Fatalf("missing cookie should pass, got: %s", missing.Detail)
	}

	path := filepath.Join(dir, "cookie")
	if err := os.WriteFile(path, []byte(glowfic.CookieName+"=abc123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	present := CheckCookie(path)
	if !present.Passed {
		t.Fatalf("expected pass, got: %s", present.Detail)
	}

	malformed := filepath.Join(dir, "malformed")
	if err := os.WriteFile(malformed, []byte("abc123"), 0o600); err != nil {
		t.Fatal(err)
	}
	if CheckCookie(malformed).Passed {
		t.Fatal("expected failure for a cookie without its name")
	}
}

func TestCheckOrigin_OK(t *testing.T) {
	agents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckOrigin(context.Background(), srv.URL+"/", "glowfic-dl/test")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if gotAgent := <-agents; gotAgent != "glowfic-dl/test" {
		t.Fatalf("expected user agent to be sent, got %q", gotAgent)
	}
}

func TestCheckOrigin_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckOrigin(context.Background(), srv.URL, "")
	if result.Passed {
		t.Fatal("expected failure for 503")
	}
}

func TestCheckOrigin_MissingURL(t *testing.T) {
	result := CheckOrigin(context.Background(), "", "")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = ""
	cfg.Paths.CookieFile = filepath.Join(t.TempDir(), "cookie")
	cfg.Origin.BaseURL = srv.URL
	cfg.Cache.Enabled = false

	results := RunAll(context.Background(), &cfg)
	// output, state, cookie, origin
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no failures")
	}
}

func TestRunAll_IncludesCacheWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = ""
	cfg.Paths.CookieFile = ""
	cfg.Origin.BaseURL = srv.URL
	cfg.Cache.Enabled = true
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache", "chapters.db")

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "Chapter cache" {
			found = true
			if !r.Passed {
				t.Errorf("cache check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected cache check in results")
	}
}

func TestFailedDetectsFailure(t *testing.T) {
	if !Failed([]Result{{Name: "a", Passed: true}, {Name: "b"}}) {
		t.Fatal("expected failure to be detected")
	}
}
