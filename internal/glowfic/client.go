package glowfic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"glowficdl/internal/logging"
)

// Default endpoints for the public site.
const (
	DefaultBaseURL = "https://glowfic.com"
	DefaultAPIURL  = "https://glowfic.com/api/v1"
)

// ChapterStore persists raw chapter pages keyed by location and timestamp.
type ChapterStore interface {
	Lookup(ctx context.Context, location string, stamp time.Time) ([]byte, bool, error)
	Store(ctx context.Context, location string, stamp time.Time, title string, body []byte) error
}

// Config describes how to reach the origin.
type Config struct {
	BaseURL   string
	APIURL    string
	UserAgent string
	// Location is the zone board listings display timestamps in.
	Location *time.Location
	Cookie   *http.Cookie
	Limiter  *Limiter
	// HTTPClient overrides the default client, which allows one connection per host.
	HTTPClient *http.Client
	Store      ChapterStore
	Logger     *slog.Logger
}

// Client fetches listings, post metadata and chapter pages from the origin.
type Client struct {
	baseURL    *url.URL
	apiURL     string
	userAgent  string
	location   *time.Location
	cookie     *http.Cookie
	limiter    *Limiter
	httpClient *http.Client
	store      ChapterStore
	logger     *slog.Logger
}

// New constructs a Client. Unset fields fall back to the public site defaults.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("glowfic: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("glowfic: base url %q must be absolute", base)
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = base + "/api/v1"
	}
	loc := cfg.Location
	if loc == nil {
		loc, err = time.LoadLocation("America/New_York")
		if err != nil {
			return nil, fmt.Errorf("glowfic: load origin time zone: %w", err)
		}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewLimiter(DefaultInterval)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxConnsPerHost = 1
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{
		baseURL:    parsed,
		apiURL:     apiURL,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		location:   loc,
		cookie:     cfg.Cookie,
		limiter:    limiter,
		httpClient: httpClient,
		store:      cfg.Store,
		logger:     logging.NewComponentLogger(cfg.Logger, "glowfic"),
	}, nil
}

// BaseURL returns the origin root used to absolutize relative links.
func (c *Client) BaseURL() *url.URL {
	clone := *c.baseURL
	return &clone
}

// get issues one rate-limited GET and returns the body with the status code.
func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("glowfic: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: request %s: %w", ErrUnreachable, target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read %s: %w", ErrUnreachable, target, err)
	}
	c.logger.Debug("origin request",
		logging.String("url", target),
		logging.Int("status", resp.StatusCode),
		logging.Int("bytes", len(body)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return body, resp.StatusCode, nil
}

func (c *Client) resolve(ref string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return c.baseURL.ResolveReference(parsed).String(), nil
}

// pageError explains why an expected marker was missing: either the page
// carried an error banner or its structure changed.
func pageError(doc *goquery.Document, location string, status int) error {
	if banner := doc.Find("div.flash.error").First(); banner.Length() > 0 {
		return &RemoteError{Location: location, Message: strings.TrimSpace(banner.Text())}
	}
	return fmt.Errorf("%w: %s (status %d)", ErrUnexpectedStructure, location, status)
}
