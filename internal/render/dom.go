package render

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(value string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: value}
}

// moveChildren detaches every child of src and appends it to dst.
func moveChildren(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

// htmlSize is the byte length of n's HTML serialization.
func htmlSize(n *html.Node) (int, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}
