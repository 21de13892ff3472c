package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const (
	xhtmlNamespace = "http://www.w3.org/1999/xhtml"
	epubNamespace  = "http://www.idpf.org/2007/ops"
	indentUnit     = "  "
)

// dropped elements never reach the output, content included.
var dropped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
}

// preformatted elements keep their whitespace exactly.
var preformatted = map[string]bool{
	"pre":      true,
	"textarea": true,
}

// SectionXHTML serializes posts into a standalone XHTML document titled
// title that links the shared stylesheet.
func SectionXHTML(title string, posts []*html.Node) ([]byte, error) {
	var buf bytes.Buffer
	w := newXHTMLWriter(&buf)

	if err := w.prolog(); err != nil {
		return nil, err
	}
	if err := w.start("html", 0, attr("xmlns", xhtmlNamespace), attr("xmlns:epub", epubNamespace)); err != nil {
		return nil, err
	}
	if err := w.head(1, title, attr("href", "../style.css"), attr("rel", "stylesheet"), attr("type", "text/css")); err != nil {
		return nil, err
	}
	if err := w.start("body", 1); err != nil {
		return nil, err
	}
	if err := w.start("div", 2, attr("class", "posts")); err != nil {
		return nil, err
	}
	for _, post := range posts {
		if err := w.node(post, 3, true); err != nil {
			return nil, err
		}
	}
	for depth, name := range []string{"div", "body", "html"} {
		if err := w.end(name, 2-depth); err != nil {
			return nil, err
		}
	}
	if err := w.finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xhtmlWriter struct {
	enc *xml.Encoder
}

func newXHTMLWriter(buf *bytes.Buffer) *xhtmlWriter {
	return &xhtmlWriter{enc: xml.NewEncoder(buf)}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func (w *xhtmlWriter) prolog() error {
	if err := w.enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8"`)}); err != nil {
		return err
	}
	if err := w.newline(0); err != nil {
		return err
	}
	if err := w.enc.EncodeToken(xml.Directive("DOCTYPE html")); err != nil {
		return err
	}
	return nil
}

func (w *xhtmlWriter) head(depth int, title string, link ...xml.Attr) error {
	if err := w.start("head", depth); err != nil {
		return err
	}
	if err := w.textElement("title", depth+1, title); err != nil {
		return err
	}
	if err := w.start("link", depth+1, link...); err != nil {
		return err
	}
	if err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "link"}}); err != nil {
		return err
	}
	return w.end("head", depth)
}

func (w *xhtmlWriter) textElement(name string, depth int, value string) error {
	if err := w.start(name, depth); err != nil {
		return err
	}
	if err := w.enc.EncodeToken(xml.CharData(value)); err != nil {
		return err
	}
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

// start writes a start tag on a fresh indented line.
func (w *xhtmlWriter) start(name string, depth int, attrs ...xml.Attr) error {
	if err := w.newline(depth); err != nil {
		return err
	}
	return w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

// end writes an end tag on a fresh indented line.
func (w *xhtmlWriter) end(name string, depth int) error {
	if err := w.newline(depth); err != nil {
		return err
	}
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *xhtmlWriter) newline(depth int) error {
	return w.enc.EncodeToken(xml.CharData("\n" + strings.Repeat(indentUnit, depth)))
}

func (w *xhtmlWriter) finish() error {
	if err := w.enc.EncodeToken(xml.CharData("\n")); err != nil {
		return err
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("epub: serialize section: %w", err)
	}
	return nil
}

// node writes n. When pretty is set and n holds only elements, each child
// goes on its own indented line; mixed content is written verbatim.
func (w *xhtmlWriter) node(n *html.Node, depth int, pretty bool) error {
	switch n.Type {
	case html.TextNode:
		return w.enc.EncodeToken(xml.CharData(n.Data))
	case html.ElementNode:
	default:
		return nil
	}
	if dropped[n.Data] {
		return nil
	}
	if !isXMLName(n.Data) {
		// Prefixed or malformed tags from pasted markup are unwrapped.
		return w.children(n, depth, false)
	}

	start := xml.StartElement{Name: xml.Name{Local: n.Data}, Attr: cleanAttrs(n.Attr)}
	if pretty {
		if err := w.newline(depth); err != nil {
			return err
		}
	}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}
	elementOnly := pretty && !preformatted[n.Data] && !hasText(n)
	if err := w.children(n, depth+1, elementOnly); err != nil {
		return err
	}
	if elementOnly && hasElement(n) {
		if err := w.newline(depth); err != nil {
			return err
		}
	}
	return w.enc.EncodeToken(xml.EndElement{Name: start.Name})
}

func (w *xhtmlWriter) children(n *html.Node, depth int, pretty bool) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pretty && c.Type == html.TextNode {
			// Only whitespace can reach here; it is replaced by indentation.
			continue
		}
		if err := w.node(c, depth, pretty); err != nil {
			return err
		}
	}
	return nil
}

// hasText reports whether n directly holds non-whitespace text, looking
// through unwrapped elements.
func hasText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) != "":
			return true
		case c.Type == html.ElementNode && !dropped[c.Data] && !isXMLName(c.Data):
			return true
		}
	}
	return false
}

func hasElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !dropped[c.Data] {
			return true
		}
	}
	return false
}

func cleanAttrs(attrs []html.Attribute) []xml.Attr {
	out := make([]xml.Attr, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" || !isXMLName(key) || strings.HasPrefix(key, "on") || seen[key] {
			continue
		}
		if key == "xmlns" {
			continue
		}
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		seen[key] = true
		out = append(out, attr(key, a.Val))
	}
	return out
}

// isXMLName accepts plain, unprefixed XML names.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}
