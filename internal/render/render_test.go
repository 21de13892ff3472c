package render_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"glowficdl/internal/glowfic"
	"glowficdl/internal/images"
	"glowficdl/internal/render"
	"glowficdl/internal/testsupport"
)

func renderHTML(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("html.Render: %v", err)
	}
	return buf.String()
}

func sealedRegistry(t *testing.T, posts []*html.Node) *images.Registry {
	t.Helper()
	reg := images.NewRegistry()
	if err := render.RegisterIcons(posts, reg); err != nil {
		t.Fatalf("RegisterIcons: %v", err)
	}
	reg.Seal()
	return reg
}

func TestRenderBuildsPostFragment(t *testing.T) {
	posts := testsupport.PostNodes(t, testsupport.Post{
		Permalink:  "/replies/12#reply-12",
		Character:  "Carissa",
		Screenname: "sword_of_ash",
		Author:     "Alice",
		Icon:       "https://i.example/carissa.png",
		IconAlt:    "smiling",
		Content:    "<p>Hello <em>there</em>.</p>",
	})
	authors := render.NewAuthorSet()
	r := render.NewRenderer(sealedRegistry(t, posts), authors)

	got, err := r.Render(posts[0])
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got.Anchor != "reply-12" || got.Permalink != "/replies/12#reply-12" || got.Author != "Alice" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	out := renderHTML(t, got.Node)
	want := `<div class="post"><a id="reply-12"></a><p><strong>Carissa / sword_of_ash / Alice</strong></p>` +
		`<img class="icon" src="../Images/icon0.png" alt="smiling"/><p>Hello <em>there</em>.</p></div>`
	if out != want {
		t.Fatalf("unexpected fragment\n got: %s\nwant: %s", out, want)
	}
	if got.Size != len(out) {
		t.Fatalf("size %d does not match serialization length %d", got.Size, len(out))
	}
	if names := authors.Names(); len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("unexpected authors %v", names)
	}
}

func TestRenderOmitsAbsentHeaderFields(t *testing.T) {
	posts := testsupport.PostNodes(t, testsupport.Post{
		Permalink: "/posts/99",
		Character: "Narrator",
		Content:   "text",
	})
	authors := render.NewAuthorSet()
	got, err := render.NewRenderer(sealedRegistry(t, posts), authors).Render(posts[0])
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got.Anchor != "post-99" {
		t.Fatalf("expected anchor from post id, got %q", got.Anchor)
	}
	out := renderHTML(t, got.Node)
	if !strings.Contains(out, "<strong>Narrator</strong>") {
		t.Fatalf("expected character-only header, got %s", out)
	}
	if strings.Contains(out, "<img") {
		t.Fatalf("post without avatar should not get an image, got %s", out)
	}
	if got.Author != "" || len(authors.Names()) != 0 {
		t.Fatalf("absent author should not be recorded, got %q %v", got.Author, authors.Names())
	}
}

func TestRenderRequiresPermalink(t *testing.T) {
	posts := testsupport.PostNodes(t, testsupport.Post{Author: "Alice", Content: "orphan"})
	_, err := render.NewRenderer(sealedRegistry(t, posts), render.NewAuthorSet()).Render(posts[0])
	if !errors.Is(err, glowfic.ErrUnexpectedStructure) {
		t.Fatalf("expected ErrUnexpectedStructure, got %v", err)
	}
}

func TestHeaderLine(t *testing.T) {
	a, c := "Alice", "Carissa"
	cases := []struct {
		header render.Header
		want   string
	}{
		{render.Header{}, ""},
		{render.Header{Author: &a}, "Alice"},
		{render.Header{Character: &c, Author: &a}, "Carissa / Alice"},
	}
	for _, tc := range cases {
		if got := tc.header.Line(); got != tc.want {
			t.Fatalf("Line() = %q, want %q", got, tc.want)
		}
	}
}

func TestAuthorSetKeepsFirstSeenOrder(t *testing.T) {
	set := render.NewAuthorSet()
	for _, name := range []string{"Bob", "Alice", "", "Bob", "Carol", "Alice"} {
		set.Add(name)
	}
	got := strings.Join(set.Names(), ",")
	if got != "Bob,Alice,Carol" {
		t.Fatalf("unexpected author order %q", got)
	}
}

func TestRenderChapterSharesRegistryNumbering(t *testing.T) {
	first := testsupport.PostNodes(t,
		testsupport.Post{Permalink: "/posts/1", Author: "Alice", Icon: "https://i.example/a.png"},
		testsupport.Post{Permalink: "/replies/2#reply-2", Author: "Bob", Icon: "https://i.example/b.jpg"},
	)
	second := testsupport.PostNodes(t,
		testsupport.Post{Permalink: "/replies/3#reply-3", Author: "Bob", Icon: "https://i.example/b.jpg"},
	)
	reg := images.NewRegistry()
	for _, posts := range [][]*html.Node{first, second} {
		if err := render.RegisterIcons(posts, reg); err != nil {
			t.Fatalf("RegisterIcons: %v", err)
		}
	}
	reg.Seal()
	authors := render.NewAuthorSet()
	r := render.NewRenderer(reg, authors)

	ch1, err := r.RenderChapter(&glowfic.ChapterPage{Title: "One", Posts: first}, render.DefaultSectionLimit)
	if err != nil {
		t.Fatalf("RenderChapter: %v", err)
	}
	ch2, err := r.RenderChapter(&glowfic.ChapterPage{Title: "Two", Posts: second}, render.DefaultSectionLimit)
	if err != nil {
		t.Fatalf("RenderChapter: %v", err)
	}
	if len(ch1.Sections) != 1 || len(ch1.Sections[0].Posts) != 2 {
		t.Fatalf("unexpected first chapter layout %+v", ch1.Sections)
	}
	if !strings.Contains(renderHTML(t, ch2.Sections[0].Posts[0].Node), `src="../Images/icon1.jpg"`) {
		t.Fatal("second chapter should reuse the first chapter's image name")
	}
	targets := ch1.Sections[0].Targets
	if len(targets) != 2 || targets[0].Anchor != "post-1" || targets[1].Permalink != "/replies/2#reply-2" {
		t.Fatalf("unexpected targets %+v", targets)
	}
	if strings.Join(authors.Names(), ",") != "Alice,Bob" {
		t.Fatalf("unexpected authors %v", authors.Names())
	}
}
