package render_test

import (
	"fmt"
	"testing"

	"glowficdl/internal/render"
)

func sized(sizes ...int) []render.RenderedPost {
	posts := make([]render.RenderedPost, len(sizes))
	for i, size := range sizes {
		id := fmt.Sprintf("reply-%d", i)
		posts[i] = render.RenderedPost{Permalink: "/replies/" + id, Anchor: id, Size: size}
	}
	return posts
}

func flatten(sections []render.Section) []string {
	var anchors []string
	for _, s := range sections {
		for _, p := range s.Posts {
			anchors = append(anchors, p.Anchor)
		}
	}
	return anchors
}

func TestSplitTwoHundredFiftyThousandBytes(t *testing.T) {
	posts := sized(50000, 50000, 50000, 50000, 50000)
	sections := render.Split(posts, render.DefaultSectionLimit)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	for i, s := range sections {
		if s.Size > render.DefaultSectionLimit {
			t.Fatalf("section %d exceeds limit: %d", i, s.Size)
		}
	}
	if sections[0].Size != 200000 || sections[1].Size != 50000 {
		t.Fatalf("unexpected sizes %d/%d", sections[0].Size, sections[1].Size)
	}
}

func TestSplitZeroPostsYieldsOneEmptySection(t *testing.T) {
	sections := render.Split(nil, render.DefaultSectionLimit)
	if len(sections) != 1 {
		t.Fatalf("expected one section, got %d", len(sections))
	}
	if len(sections[0].Posts) != 0 || len(sections[0].Targets) != 0 || sections[0].Size != 0 {
		t.Fatalf("expected empty section, got %+v", sections[0])
	}
}

func TestSplitOversizedPostGetsOwnSection(t *testing.T) {
	sections := render.Split(sized(10, 500, 10), 100)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if len(sections[1].Posts) != 1 || sections[1].Size != 500 {
		t.Fatalf("oversized post should stand alone, got %+v", sections[1])
	}
}

func TestSplitPreservesOrderAndBound(t *testing.T) {
	sizes := []int{30, 70, 1, 99, 100, 5, 5, 90, 120, 40}
	posts := sized(sizes...)
	sections := render.Split(posts, 100)

	got := flatten(sections)
	if len(got) != len(posts) {
		t.Fatalf("expected %d posts, got %d", len(posts), len(got))
	}
	for i, anchor := range got {
		if anchor != posts[i].Anchor {
			t.Fatalf("post %d out of order: %s", i, anchor)
		}
	}
	for i, s := range sections {
		if s.Size > 100 && len(s.Posts) != 1 {
			t.Fatalf("section %d over limit with %d posts", i, len(s.Posts))
		}
		if len(s.Targets) != len(s.Posts) {
			t.Fatalf("section %d targets do not match posts", i)
		}
	}
}
