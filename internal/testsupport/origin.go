package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type response struct {
	status      int
	contentType string
	body        []byte
	delay       time.Duration
}

// Origin is a fake Glowfic site backed by httptest. Unregistered paths
// answer 404.
type Origin struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]response
	hits      map[string]int
	queries   map[string][]string
	cookies   map[string][]string
}

// NewOrigin starts a fake origin that is closed when the test ends.
func NewOrigin(t testing.TB) *Origin {
	t.Helper()

	o := &Origin{
		responses: make(map[string]response),
		hits:      make(map[string]int),
		queries:   make(map[string][]string),
		cookies:   make(map[string][]string),
	}
	o.Server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.Server.Close)
	return o
}

// URL returns an absolute URL for path on the fake origin.
func (o *Origin) URL(path string) string {
	return o.Server.URL + path
}

// Page registers an HTML document.
func (o *Origin) Page(path, body string) {
	o.set(path, response{status: http.StatusOK, contentType: "text/html; charset=utf-8", body: []byte(body)})
}

// PageStatus registers an HTML document served with a non-200 status.
func (o *Origin) PageStatus(path string, status int, body string) {
	o.set(path, response{status: status, contentType: "text/html; charset=utf-8", body: []byte(body)})
}

// JSON registers a JSON document.
func (o *Origin) JSON(path, body string) {
	o.set(path, response{status: http.StatusOK, contentType: "application/json", body: []byte(body)})
}

// File registers a binary payload. An empty contentType omits the header.
func (o *Origin) File(path, contentType string, body []byte) {
	o.set(path, response{status: http.StatusOK, contentType: contentType, body: body})
}

// Slow registers a payload that is only sent after delay.
func (o *Origin) Slow(path string, delay time.Duration, body []byte) {
	o.set(path, response{status: http.StatusOK, contentType: "image/png", body: body, delay: delay})
}

// Fail registers a bare error status.
func (o *Origin) Fail(path string, status int) {
	o.set(path, response{status: status, contentType: "text/plain", body: []byte(http.StatusText(status))})
}

// Hits reports how many requests reached path.
func (o *Origin) Hits(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

// Queries returns the raw query strings received for path.
func (o *Origin) Queries(path string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.queries[path]...)
}

// Cookies returns the session cookie values received for path.
func (o *Origin) Cookies(path string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.cookies[path]...)
}

func (o *Origin) set(path string, resp response) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses[path] = resp
}

func (o *Origin) serve(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	o.hits[r.URL.Path]++
	o.queries[r.URL.Path] = append(o.queries[r.URL.Path], r.URL.RawQuery)
	if c, err := r.Cookie("_glowfic_constellation_production"); err == nil {
		o.cookies[r.URL.Path] = append(o.cookies[r.URL.Path], c.Value)
	}
	resp, ok := o.responses[r.URL.Path]
	o.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-r.Context().Done():
			return
		}
	}
	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}
