package epub_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"glowficdl/internal/epub"
)

func parseFragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one root node, got %d", len(nodes))
	}
	return nodes[0]
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("document is not well-formed: %v\n%s", err, doc)
		}
	}
}

func TestSectionXHTMLStructure(t *testing.T) {
	post := parseFragment(t, `<div class="post"><a id="reply-1"></a><p><strong>Alice</strong></p><img class="icon" src="../Images/icon0.png" alt="a"><p>Hello <em>world</em> &amp; more</p><br></div>`)

	doc, err := epub.SectionXHTML("Chapter <One>", []*html.Node{post})
	if err != nil {
		t.Fatalf("SectionXHTML: %v", err)
	}
	wellFormed(t, doc)

	out := string(doc)
	for _, want := range []string{
		`<?xml version="1.0" encoding="utf-8"?>`,
		"<!DOCTYPE html>",
		`<html xmlns="http://www.w3.org/1999/xhtml"`,
		"<title>Chapter &lt;One&gt;</title>",
		`<link href="../style.css" rel="stylesheet" type="text/css"></link>`,
		"\n    <div class=\"posts\">\n      <div class=\"post\">\n        <a id=\"reply-1\"></a>\n",
		"\n        <p>Hello <em>world</em> &amp; more</p>\n",
		"\n        <img class=\"icon\" src=\"../Images/icon0.png\" alt=\"a\"></img>\n",
		"\n      </div>\n    </div>\n  </body>\n</html>\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSectionXHTMLKeepsMixedContentIntact(t *testing.T) {
	post := parseFragment(t, "<div class=\"post\">Some <b>bold</b>\n  and <i>italic</i> text</div>")
	doc, err := epub.SectionXHTML("t", []*html.Node{post})
	if err != nil {
		t.Fatalf("SectionXHTML: %v", err)
	}
	if !strings.Contains(string(doc), "<div class=\"post\">Some <b>bold</b>\n  and <i>italic</i> text</div>") {
		t.Fatalf("mixed content was reformatted:\n%s", doc)
	}
}

func TestSectionXHTMLDropsUnsafeMarkup(t *testing.T) {
	post := parseFragment(t, `<div class="post"><p onclick="evil()" title="ok">x<script>alert(1)</script></p><style>p{}</style><!-- note --><a href="javascript:alert(1)">link</a><o:p>word</o:p></div>`)
	doc, err := epub.SectionXHTML("t", []*html.Node{post})
	if err != nil {
		t.Fatalf("SectionXHTML: %v", err)
	}
	wellFormed(t, doc)
	out := string(doc)
	for _, banned := range []string{"onclick", "script", "alert", "<style", "note", "o:p"} {
		if strings.Contains(out, banned) {
			t.Fatalf("output still contains %q:\n%s", banned, out)
		}
	}
	if !strings.Contains(out, `<p title="ok">x</p>`) || !strings.Contains(out, "word") {
		t.Fatalf("expected safe content to survive:\n%s", out)
	}
}

func TestSectionXHTMLEmptySection(t *testing.T) {
	doc, err := epub.SectionXHTML("Empty", nil)
	if err != nil {
		t.Fatalf("SectionXHTML: %v", err)
	}
	wellFormed(t, doc)
	if !strings.Contains(string(doc), "<div class=\"posts\">\n    </div>") {
		t.Fatalf("unexpected empty section:\n%s", doc)
	}
}
