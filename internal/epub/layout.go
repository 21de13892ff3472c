package epub

import (
	"fmt"
	"net/url"
	"strconv"

	"glowficdl/internal/render"
)

// SectionFile names one section inside the container.
type SectionFile struct {
	// Name is the sanitized file name.
	Name string
	// Href is Name escaped for use in a URL relative to the Text directory.
	Href string
}

// Path returns the file's location inside the package directory.
func (f SectionFile) Path() string {
	return "Text/" + f.Name
}

// Layout holds every section's file, indexed by chapter then section.
type Layout struct {
	Files [][]SectionFile
}

// Hrefs returns the escaped Text-relative references in layout order.
func (l Layout) Hrefs() [][]string {
	out := make([][]string, len(l.Files))
	for i, files := range l.Files {
		out[i] = make([]string, len(files))
		for j, f := range files {
			out[i][j] = f.Href
		}
	}
	return out
}

// NameSections assigns a file to every section of every chapter.
func NameSections(chapters []render.Chapter) (Layout, error) {
	layout := Layout{Files: make([][]SectionFile, len(chapters))}
	for i, ch := range chapters {
		files := make([]SectionFile, len(ch.Sections))
		for j := range ch.Sections {
			name, err := SectionName(i, len(chapters), j, len(ch.Sections), ch.Title)
			if err != nil {
				return Layout{}, fmt.Errorf("name chapter %d section %d: %w", i+1, j, err)
			}
			files[j] = SectionFile{Name: name, Href: url.PathEscape(name)}
		}
		layout.Files[i] = files
	}
	return layout, nil
}

// SectionName builds "<i>-<j> (<title>).xhtml" for chapter index i
// (0-based, shown 1-based) and section index j, padding each index to the
// width of its count.
func SectionName(chapter, chapters, section, sections int, title string) (string, error) {
	raw := fmt.Sprintf("%0*d-%0*d (%s).xhtml",
		digits(chapters), chapter+1,
		digits(sections), section,
		title,
	)
	return SanitizeFilename(raw)
}

func digits(n int) int {
	return len(strconv.Itoa(n))
}
