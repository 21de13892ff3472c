package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"glowficdl/internal/logging"
)

// DefaultTimeout bounds each avatar request.
const DefaultTimeout = 15 * time.Second

// maxImageBytes caps a single avatar payload.
const maxImageBytes = 16 << 20

// Asset is a downloaded avatar ready for packaging.
type Asset struct {
	Path        string
	Source      string
	ContentType string
	Data        []byte
}

// Downloader fetches every registered avatar concurrently.
type Downloader struct {
	client    *http.Client
	timeout   time.Duration
	base      *url.URL
	userAgent string
	logger    *slog.Logger
	// OnDone, when set, is called once per finished request, possibly from
	// several goroutines at once.
	OnDone func(Entry, error)
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithBaseURL resolves relative avatar sources against base.
func WithBaseURL(base *url.URL) Option {
	return func(d *Downloader) {
		d.base = base
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(d *Downloader) {
		d.userAgent = strings.TrimSpace(agent)
	}
}

// NewDownloader constructs a Downloader.
func NewDownloader(logger *slog.Logger, opts ...Option) *Downloader {
	d := &Downloader{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  logging.NewComponentLogger(logger, "images"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches every entry of a sealed registry, one goroutine per
// image. Failed images are logged and omitted; the result keeps registry
// order.
func (d *Downloader) Download(ctx context.Context, reg *Registry) ([]Asset, error) {
	if !reg.Sealed() {
		return nil, ErrNotSealed
	}
	entries := reg.Entries()
	results := make([]*Asset, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := d.fetch(ctx, entry)
			if err != nil {
				logging.WarnWithContext(d.logger, "avatar download failed", "image_download_failed",
					logging.String("source", entry.Source),
					logging.Error(err),
					logging.String(logging.FieldImpact, "avatar omitted from the book"),
					logging.String(logging.FieldErrorHint, "rerun later to retry the image"),
				)
			} else {
				asset.Path = reg.entryPath(entry)
				results[i] = asset
			}
			if d.OnDone != nil {
				d.OnDone(entry, err)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(results))
	for _, asset := range results {
		if asset != nil {
			assets = append(assets, *asset)
		}
	}
	return assets, nil
}

func (d *Downloader) fetch(ctx context.Context, entry Entry) (*Asset, error) {
	target := entry.Source
	if d.base != nil {
		if ref, err := url.Parse(target); err == nil {
			target = d.base.ResolveReference(ref).String()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds max size (%d bytes)", maxImageBytes)
	}

	contentType := normaliseContentType(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = normaliseContentType(http.DetectContentType(data))
	}

	return &Asset{
		Source:      entry.Source,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func normaliseContentType(ct string) string {
	main, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(strings.ToLower(main))
}
