package render

import (
	"glowficdl/internal/glowfic"
)

// DefaultSectionLimit is the serialized byte budget for one section.
const DefaultSectionLimit = 200000

// Target is a post a section can be linked to.
type Target struct {
	Permalink string
	Anchor    string
}

// Section is a run of consecutive posts that becomes one content file.
type Section struct {
	Posts   []RenderedPost
	Size    int
	Targets []Target
}

func (s *Section) append(p RenderedPost) {
	s.Posts = append(s.Posts, p)
	s.Size += p.Size
	s.Targets = append(s.Targets, Target{Permalink: p.Permalink, Anchor: p.Anchor})
}

// Chapter is one rendered chapter in discovery order.
type Chapter struct {
	Title    string
	Location string
	Sections []Section
}

// Split packs posts greedily into sections of at most limit bytes. A section
// only exceeds the limit when it holds a single oversized post. The result
// always has at least one section.
func Split(posts []RenderedPost, limit int) []Section {
	sections := make([]Section, 0, 1)
	current := Section{}
	for _, p := range posts {
		if len(current.Posts) > 0 && current.Size+p.Size > limit {
			sections = append(sections, current)
			current = Section{}
		}
		current.append(p)
	}
	return append(sections, current)
}

// RenderChapter renders every post of page and splits the result.
func (r *Renderer) RenderChapter(page *glowfic.ChapterPage, limit int) (Chapter, error) {
	posts := make([]RenderedPost, 0, len(page.Posts))
	for _, node := range page.Posts {
		rendered, err := r.Render(node)
		if err != nil {
			return Chapter{}, err
		}
		posts = append(posts, rendered)
	}
	return Chapter{
		Title:    page.Title,
		Location: page.Location.URL,
		Sections: Split(posts, limit),
	}, nil
}
