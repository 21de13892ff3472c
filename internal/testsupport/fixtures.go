package testsupport

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// Post describes one post container on a flat-view chapter page. Empty
// header fields and an empty Icon are left out of the markup.
type Post struct {
	Permalink  string
	Character  string
	Screenname string
	Author     string
	Icon       string
	IconAlt    string
	// Content is inserted verbatim into div.post-content.
	Content string
}

// Reply builds a reply post whose permalink carries a reply anchor.
func Reply(id int, author, content string) Post {
	return Post{
		Permalink: fmt.Sprintf("/replies/%d#reply-%d", id, id),
		Author:    author,
		Content:   content,
	}
}

// ListingRow is one row of a board or board section listing.
type ListingRow struct {
	Href    string
	Subject string
	Time    string
	Author  string
}

// ChapterHTML renders a flat-view chapter page.
func ChapterHTML(title string, posts ...Post) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString(" | Glowfic Constellation</title></head><body>\n<div id=\"content\">\n")
	fmt.Fprintf(&b, "<div class=\"post-header\"><span id=\"post-title\"> %s </span></div>\n", html.EscapeString(title))
	for _, p := range posts {
		b.WriteString(PostHTML(p))
		b.WriteByte('\n')
	}
	b.WriteString("</div>\n</body></html>\n")
	return b.String()
}

// PostHTML renders a single div.post-container.
func PostHTML(p Post) string {
	var b strings.Builder
	b.WriteString("<div class=\"post-container\">\n<div class=\"post-info-box\">\n")
	if p.Icon != "" {
		fmt.Fprintf(&b, "<div class=\"post-icon\"><img class=\"icon\" src=\"%s\" alt=\"%s\"></div>\n",
			html.EscapeString(p.Icon), html.EscapeString(p.IconAlt))
	}
	b.WriteString("<div class=\"post-info-text\">\n")
	for _, field := range []struct{ class, value string }{
		{"post-character", p.Character},
		{"post-screenname", p.Screenname},
		{"post-author", p.Author},
	} {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(&b, "<div class=\"%s\">\n  %s\n</div>\n", field.class, html.EscapeString(field.value))
	}
	b.WriteString("</div>\n</div>\n")
	if p.Permalink != "" {
		fmt.Fprintf(&b, "<div class=\"post-footer\"><a href=\"%s\"><img title=\"Permalink\" alt=\"Permalink\" src=\"/images/link.png\"></a></div>\n",
			html.EscapeString(p.Permalink))
	}
	fmt.Fprintf(&b, "<div class=\"post-content\">%s</div>\n", p.Content)
	b.WriteString("</div>")
	return b.String()
}

// BoardHTML renders a board listing.
func BoardHTML(title string, rows ...ListingRow) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Board</title></head><body>\n<div id=\"content\">\n<table>\n")
	fmt.Fprintf(&b, "<thead><tr><th class=\"table-title\" colspan=\"2\">\n %s <a class=\"edit\" href=\"/boards/1/edit\">Edit</a></th></tr></thead>\n<tbody>\n",
		html.EscapeString(title))
	for _, row := range rows {
		author := row.Author
		if author == "" {
			author = "someone"
		}
		fmt.Fprintf(&b, "<tr><td class=\"post-subject\"><a href=\"%s\">%s</a></td><td class=\"post-time\">%s by <a href=\"/users/1\">%s</a></td></tr>\n",
			html.EscapeString(row.Href), html.EscapeString(row.Subject), html.EscapeString(row.Time), html.EscapeString(author))
	}
	b.WriteString("</tbody>\n</table>\n</div>\n</body></html>\n")
	return b.String()
}

// ErrorPageHTML renders a page carrying the site's error banner.
func ErrorPageHTML(message string) string {
	return fmt.Sprintf("<!DOCTYPE html>\n<html><body><div class=\"flash error\">\n  %s\n</div></body></html>\n", html.EscapeString(message))
}

// PostNodes parses posts the way the chapter fetcher does and returns their
// container nodes.
func PostNodes(t testing.TB, posts ...Post) []*xhtml.Node {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(ChapterHTML("fixture", posts...))))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc.Find("div.post-container").Nodes
}
