package glowfic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// listingLayout matches board timestamps such as "Jan 05, 2023  11:30 PM".
// Single-digit days and hours are accepted as well.
const listingLayout = "Jan 2, 2006  3:04 PM"

type postMetadata struct {
	Subject  string `json:"subject"`
	TaggedAt string `json:"tagged_at"`
}

// Discover resolves an entry URL into the chapters to archive. Post URLs
// yield a single chapter described by the JSON API; board and board section
// URLs yield every listed post in listing order.
func (c *Client) Discover(ctx context.Context, location string) (*BookSpec, error) {
	parsed, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnrecognizedLocation, location, err)
	}
	target := c.baseURL.ResolveReference(parsed)
	target.Fragment = ""

	switch {
	case strings.Contains(target.Path, "posts"):
		return c.discoverPost(ctx, target)
	case strings.Contains(target.Path, "board_sections"), strings.Contains(target.Path, "boards"):
		return c.discoverListing(ctx, target)
	default:
		return nil, fmt.Errorf("%w: %q is not a post, board, or board section", ErrUnrecognizedLocation, location)
	}
}

func (c *Client) discoverPost(ctx context.Context, target *url.URL) (*BookSpec, error) {
	apiTarget := c.apiURL + target.EscapedPath()
	body, status, err := c.get(ctx, apiTarget)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return nil, &RemoteError{
			Location: apiTarget,
			Message:  fmt.Sprintf("api returned %d %s: %s", status, http.StatusText(status), excerpt),
		}
	}

	var meta postMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("%w: decode post metadata: %v", ErrUnexpectedStructure, err)
	}
	if strings.TrimSpace(meta.TaggedAt) == "" {
		return nil, fmt.Errorf("%w: post metadata missing tagged_at", ErrUnexpectedStructure)
	}
	stamp, err := time.Parse(time.RFC3339Nano, meta.TaggedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parse tagged_at %q: %v", ErrUnexpectedStructure, meta.TaggedAt, err)
	}

	return &BookSpec{
		Title:    meta.Subject,
		Chapters: []StampedLocation{{URL: target.String(), Stamp: stamp.UTC()}},
	}, nil
}

func (c *Client) discoverListing(ctx context.Context, target *url.URL) (*BookSpec, error) {
	location := target.String()
	body, status, err := c.get(ctx, location)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("glowfic: parse listing: %w", err)
	}
	content := doc.Find("div#content").First()
	if content.Length() == 0 {
		return nil, pageError(doc, location, status)
	}

	spec := &BookSpec{}
	var rowErr error
	content.Find("td.post-subject").EachWithBreak(func(i int, row *goquery.Selection) bool {
		stamped, err := c.stampedFromRow(row)
		if err != nil {
			rowErr = fmt.Errorf("listing row %d: %w", i+1, err)
			return false
		}
		spec.Chapters = append(spec.Chapters, stamped)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	heading := doc.Find("th.table-title").First()
	if heading.Length() == 0 {
		return nil, fmt.Errorf("%w: %s has no table title", ErrUnexpectedStructure, location)
	}
	spec.Title = firstText(heading.Nodes[0])
	return spec, nil
}

func (c *Client) stampedFromRow(row *goquery.Selection) (StampedLocation, error) {
	href, ok := row.Find("a[href]").First().Attr("href")
	if !ok {
		return StampedLocation{}, fmt.Errorf("%w: subject cell has no link", ErrUnexpectedStructure)
	}
	resolved, err := c.resolve(href)
	if err != nil {
		return StampedLocation{}, fmt.Errorf("%w: link %q: %v", ErrUnexpectedStructure, href, err)
	}

	cell := row.Parent().Find("td.post-time").First()
	if cell.Length() == 0 {
		return StampedLocation{}, fmt.Errorf("%w: row has no post time", ErrUnexpectedStructure)
	}
	stamp, err := ParseListingTime(firstText(cell.Nodes[0]), c.location)
	if err != nil {
		return StampedLocation{}, err
	}
	return StampedLocation{URL: resolved, Stamp: stamp}, nil
}

// ParseListingTime converts a listing cell such as
// "Jan 05, 2023  11:30 PM by Alice" into a UTC instant, reading the wall
// clock in loc.
func ParseListingTime(raw string, loc *time.Location) (time.Time, error) {
	before, _, _ := strings.Cut(raw, "by")
	value := strings.TrimSpace(before)
	local, err := time.ParseInLocation(listingLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse listing time %q: %v", ErrUnexpectedStructure, value, err)
	}
	return local.UTC(), nil
}

// firstText returns the first non-blank text node under n, trimmed.
func firstText(n *html.Node) string {
	for node := range n.Descendants() {
		if node.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(node.Data); text != "" {
			return text
		}
	}
	return ""
}
