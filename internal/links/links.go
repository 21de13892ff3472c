package links

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"glowficdl/internal/render"
)

var replyPattern = regexp.MustCompile(`^/(replies|posts)/\d+$`)

// Location is where a post lives in the book.
type Location struct {
	// Href is the section file reference relative to the Text directory,
	// already URL-escaped.
	Href   string
	Anchor string
}

// Index maps canonical post references (e.g. "/replies/123") to locations.
// It is read-only once built.
type Index struct {
	origin  *url.URL
	entries map[string]Location
}

// Stats counts rewritten links.
type Stats struct {
	Internal int
	External int
}

// BuildIndex records every section's link targets. hrefs[i][j] is the file
// reference of section j of chapter i.
func BuildIndex(origin *url.URL, chapters []render.Chapter, hrefs [][]string) *Index {
	idx := &Index{origin: origin, entries: make(map[string]Location)}
	for i, ch := range chapters {
		for j, section := range ch.Sections {
			for _, target := range section.Targets {
				key, ok := idx.key(target.Permalink)
				if !ok {
					continue
				}
				// A permalink seen twice keeps its first location.
				if _, exists := idx.entries[key]; exists {
					continue
				}
				idx.entries[key] = Location{Href: hrefs[i][j], Anchor: target.Anchor}
			}
		}
	}
	return idx
}

// Len returns the number of indexed posts.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup resolves href to a book location when it references an indexed post.
func (idx *Index) Lookup(href string) (Location, bool) {
	key, ok := idx.key(href)
	if !ok {
		return Location{}, false
	}
	loc, ok := idx.entries[key]
	return loc, ok
}

// key canonicalizes a same-site reply or post reference.
func (idx *Index) key(href string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if parsed.Host != "" {
		if idx.origin == nil || !strings.EqualFold(parsed.Host, idx.origin.Host) {
			return "", false
		}
	} else if parsed.Scheme != "" {
		return "", false
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	if !replyPattern.MatchString(path) {
		return "", false
	}
	return path, true
}

// Rewrite updates every a[href] in every section of chapters.
func Rewrite(chapters []render.Chapter, idx *Index) Stats {
	var stats Stats
	for _, ch := range chapters {
		for _, section := range ch.Sections {
			for _, post := range section.Posts {
				for n := range post.Node.Descendants() {
					if n.Type != html.ElementNode || n.Data != "a" {
						continue
					}
					rewriteAnchor(n, idx, &stats)
				}
			}
		}
	}
	return stats
}

func rewriteAnchor(n *html.Node, idx *Index, stats *Stats) {
	for i, attr := range n.Attr {
		if attr.Namespace != "" || attr.Key != "href" {
			continue
		}
		if updated, internal, ok := idx.resolve(attr.Val); ok {
			n.Attr[i].Val = updated
			if internal {
				stats.Internal++
			} else {
				stats.External++
			}
		}
		return
	}
}

// resolve returns the replacement for href and whether it points into the book.
func (idx *Index) resolve(href string) (string, bool, bool) {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false, false
	}
	if loc, ok := idx.Lookup(href); ok {
		fragment := parsed.Fragment
		if fragment == "" {
			fragment = loc.Anchor
		}
		return loc.Href + "#" + fragment, true, true
	}
	if parsed.Host != "" || parsed.Scheme != "" || idx.origin == nil {
		return "", false, false
	}
	if parsed.Path == "" && parsed.RawQuery == "" {
		// Fragment-only or empty references stay within the page.
		return "", false, false
	}
	return idx.origin.ResolveReference(parsed).String(), false, true
}
