package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"glowficdl/internal/glowfic"
	"glowficdl/internal/images"
)

// Header holds the optional identity lines shown above a post. A nil field
// means the page had no such element.
type Header struct {
	Character  *string
	Screenname *string
	Author     *string
}

// Line joins the present fields with " / ".
func (h Header) Line() string {
	parts := make([]string, 0, 3)
	for _, field := range []*string{h.Character, h.Screenname, h.Author} {
		if field != nil {
			parts = append(parts, *field)
		}
	}
	return strings.Join(parts, " / ")
}

// RenderedPost is one normalized post fragment.
type RenderedPost struct {
	// Node is the <div class="post"> fragment.
	Node      *html.Node
	Author    string
	Permalink string
	Anchor    string
	// Size is the byte length of Node's HTML serialization.
	Size int
}

// Renderer renders posts against a sealed image registry and records
// authors as it goes. It is not safe for concurrent use.
type Renderer struct {
	images  *images.Registry
	authors *AuthorSet
}

// NewRenderer constructs a Renderer sharing the given registry and author set.
func NewRenderer(reg *images.Registry, authors *AuthorSet) *Renderer {
	return &Renderer{images: reg, authors: authors}
}

// RegisterIcons adds every avatar referenced by posts to reg, in page order.
func RegisterIcons(posts []*html.Node, reg *images.Registry) error {
	for _, post := range posts {
		if src, ok := iconSource(goquery.NewDocumentFromNode(post).Selection); ok {
			if err := reg.Add(src); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render converts a div.post-container into a post fragment. The content
// nodes are moved out of post, so each container can be rendered once.
func (r *Renderer) Render(post *html.Node) (RenderedPost, error) {
	sel := goquery.NewDocumentFromNode(post).Selection

	permalink, ok := sel.Find(`img[title="Permalink"][alt="Permalink"]`).First().Parent().Attr("href")
	if !ok {
		return RenderedPost{}, fmt.Errorf("%w: post has no permalink", glowfic.ErrUnexpectedStructure)
	}
	anchor := anchorFor(permalink)
	header := readHeader(sel)

	div := element("div", "class", "post")
	div.AppendChild(element("a", "id", anchor))

	strong := element("strong")
	strong.AppendChild(text(header.Line()))
	para := element("p")
	para.AppendChild(strong)
	div.AppendChild(para)

	if src, ok := iconSource(sel); ok {
		path, err := r.images.Path(src)
		if err != nil {
			return RenderedPost{}, fmt.Errorf("render post %s: %w", permalink, err)
		}
		alt, _ := sel.Find("img.icon").First().Attr("alt")
		div.AppendChild(element("img", "class", "icon", "src", "../"+path, "alt", alt))
	}

	if content := sel.Find("div.post-content").First(); content.Length() > 0 {
		moveChildren(div, content.Nodes[0])
	}

	size, err := htmlSize(div)
	if err != nil {
		return RenderedPost{}, fmt.Errorf("measure post %s: %w", permalink, err)
	}

	author := ""
	if header.Author != nil {
		author = *header.Author
	}
	r.authors.Add(author)

	return RenderedPost{
		Node:      div,
		Author:    author,
		Permalink: permalink,
		Anchor:    anchor,
		Size:      size,
	}, nil
}

func readHeader(sel *goquery.Selection) Header {
	field := func(selector string) *string {
		found := sel.Find(selector).First()
		if found.Length() == 0 {
			return nil
		}
		value := strings.TrimSpace(found.Text())
		return &value
	}
	return Header{
		Character:  field("div.post-character"),
		Screenname: field("div.post-screenname"),
		Author:     field("div.post-author"),
	}
}

func iconSource(sel *goquery.Selection) (string, bool) {
	return sel.Find("img.icon").First().Attr("src")
}

// anchorFor derives the in-book anchor for a permalink: its fragment when
// present, else "post-" followed by the last path segment.
func anchorFor(permalink string) string {
	if parsed, err := url.Parse(permalink); err == nil && parsed.Fragment != "" {
		return parsed.Fragment
	}
	trimmed := permalink
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "post-" + trimmed[strings.LastIndex(trimmed, "/")+1:]
}
