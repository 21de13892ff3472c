package glowfic

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"glowficdl/internal/logging"
)

// FetchChapter retrieves the flat view of one chapter. When a ChapterStore is
// configured and holds a page for the same location and timestamp, the
// network and the limiter are skipped.
func (c *Client) FetchChapter(ctx context.Context, loc StampedLocation) (*ChapterPage, error) {
	logger := logging.WithContext(ctx, c.logger)
	if c.store != nil {
		body, ok, err := c.store.Lookup(ctx, loc.URL, loc.Stamp)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "chapter cache lookup failed", "chapter_cache_lookup_failed",
				logging.String("url", loc.URL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "chapter will be fetched from the site"),
			)
		case ok:
			page, err := ParseChapter(loc, body, http.StatusOK)
			if err == nil {
				page.Cached = true
				logger.Debug("chapter served from cache", logging.String("url", loc.URL))
				return page, nil
			}
			logging.WarnWithContext(logger, "cached chapter unreadable", "chapter_cache_corrupt",
				logging.String("url", loc.URL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "chapter will be fetched from the site"),
			)
		}
	}

	target, err := flatViewURL(loc.URL)
	if err != nil {
		return nil, err
	}
	body, status, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	page, err := ParseChapter(loc, body, status)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Store(ctx, loc.URL, loc.Stamp, page.Title, body); err != nil {
			logging.WarnWithContext(logger, "chapter cache store failed", "chapter_cache_store_failed",
				logging.String("url", loc.URL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run will fetch this chapter again"),
			)
		}
	}
	return page, nil
}

// ParseChapter extracts the title and post containers from a flat-view page.
// status is only used to annotate structure errors.
func ParseChapter(loc StampedLocation, body []byte, status int) (*ChapterPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("glowfic: parse chapter %s: %w", loc.URL, err)
	}
	title := doc.Find("span#post-title").First()
	if title.Length() == 0 {
		return nil, pageError(doc, loc.URL, status)
	}
	return &ChapterPage{
		Location: loc,
		Title:    strings.TrimSpace(title.Text()),
		Posts:    doc.Find("div.post-container").Nodes,
	}, nil
}

func flatViewURL(location string) (string, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("glowfic: parse chapter url %q: %w", location, err)
	}
	query := parsed.Query()
	query.Set("view", "flat")
	parsed.RawQuery = query.Encode()
	parsed.Fragment = ""
	return parsed.String(), nil
}
