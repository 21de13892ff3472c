package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"glowficdl/internal/images"
	"glowficdl/internal/render"
)

// Stylesheet is embedded in every book as style.css.
const Stylesheet = `img.icon {
    width:100px;
    float:left;
    margin-right: 1em;
    margin-bottom: 1em;
}
div.post {
    overflow: hidden;
    padding: 0.5em;
    border: solid grey 0.5em;
    page-break-inside: avoid;
}
`

const (
	packageDir    = "EPUB"
	mediaXHTML    = "application/xhtml+xml"
	modifiedStamp = "2006-01-02T15:04:05Z"
)

// Metadata describes the book as a whole.
type Metadata struct {
	// Identifier is a URN such as "urn:uuid:...".
	Identifier string
	Title      string
	Language   string
	Authors    []string
	Modified   time.Time
}

// Document is one serialized section file.
type Document struct {
	File    SectionFile
	Title   string
	Content []byte
}

// Book is everything needed to write the container.
type Book struct {
	Metadata Metadata
	// Chapters holds each chapter's section documents in order.
	Chapters [][]Document
	Titles   []string
	Images   []images.Asset
}

// Assemble serializes every section and gathers the book's parts. Link
// rewriting must already have run over chapters.
func Assemble(meta Metadata, chapters []render.Chapter, layout Layout, assets []images.Asset) (*Book, error) {
	if len(layout.Files) != len(chapters) {
		return nil, fmt.Errorf("epub: layout has %d chapters, book has %d", len(layout.Files), len(chapters))
	}
	book := &Book{
		Metadata: meta,
		Chapters: make([][]Document, len(chapters)),
		Titles:   make([]string, len(chapters)),
		Images:   assets,
	}
	for i, ch := range chapters {
		book.Titles[i] = ch.Title
		docs := make([]Document, len(ch.Sections))
		for j, section := range ch.Sections {
			nodes := make([]*html.Node, len(section.Posts))
			for k, post := range section.Posts {
				nodes[k] = post.Node
			}
			content, err := SectionXHTML(ch.Title, nodes)
			if err != nil {
				return nil, fmt.Errorf("epub: chapter %d section %d: %w", i+1, j, err)
			}
			docs[j] = Document{File: layout.Files[i][j], Title: ch.Title, Content: content}
		}
		book.Chapters[i] = docs
	}
	return book, nil
}

// SectionCount returns the number of section documents.
func (b *Book) SectionCount() int {
	n := 0
	for _, docs := range b.Chapters {
		n += len(docs)
	}
	return n
}

// WriteFile writes the book to path through a temporary file in the same
// directory, so a failed run never leaves a truncated book behind.
func (b *Book) WriteFile(target string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".glowfic-dl-*.epub")
	if err != nil {
		return 0, fmt.Errorf("epub: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	counter := &countingWriter{w: tmp}
	if err := b.Write(counter); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("epub: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("epub: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("epub: move into place: %w", err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write streams the EPUB container to w.
func (b *Book) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	mimetype, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("epub: write mimetype: %w", err)
	}
	if _, err := io.WriteString(mimetype, "application/epub+zip"); err != nil {
		return fmt.Errorf("epub: write mimetype: %w", err)
	}

	if err := writeXML(zw, "META-INF/container.xml", container{
		Version: "1.0",
		Rootfiles: []rootfile{{
			FullPath:  packageDir + "/content.opf",
			MediaType: "application/oebps-package+xml",
		}},
	}); err != nil {
		return err
	}

	if err := writeXML(zw, packageDir+"/content.opf", b.packageDocument()); err != nil {
		return err
	}
	if err := writeNav(zw, b.navDocument()); err != nil {
		return err
	}
	if err := writeXML(zw, packageDir+"/toc.ncx", b.ncxDocument()); err != nil {
		return err
	}
	if err := writeRaw(zw, packageDir+"/style.css", []byte(Stylesheet)); err != nil {
		return err
	}
	for _, docs := range b.Chapters {
		for _, doc := range docs {
			if err := writeRaw(zw, path.Join(packageDir, doc.File.Path()), doc.Content); err != nil {
				return err
			}
		}
	}
	for _, asset := range b.Images {
		if err := writeRaw(zw, path.Join(packageDir, asset.Path), asset.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("epub: finish archive: %w", err)
	}
	return nil
}

func (b *Book) packageDocument() opfPackage {
	meta := b.Metadata
	pkg := opfPackage{
		Version:          "3.0",
		UniqueIdentifier: "book-id",
		Lang:             meta.Language,
		Metadata: opfMetadata{
			XmlnsDC:    "http://purl.org/dc/elements/1.1/",
			Identifier: opfID{ID: "book-id", Value: meta.Identifier},
			Title:      meta.Title,
			Language:   meta.Language,
		},
	}
	for i, author := range meta.Authors {
		id := fmt.Sprintf("creator%d", i)
		pkg.Metadata.Creators = append(pkg.Metadata.Creators, opfCreator{ID: id, Value: author})
		pkg.Metadata.Meta = append(pkg.Metadata.Meta, opfMeta{Refines: "#" + id, Property: "role", Value: "aut"})
	}
	pkg.Metadata.Meta = append(pkg.Metadata.Meta, opfMeta{
		Property: "dcterms:modified",
		Value:    meta.Modified.UTC().Format(modifiedStamp),
	})

	pkg.Manifest = []opfItem{
		{ID: "nav", Href: "nav.xhtml", MediaType: mediaXHTML, Properties: "nav"},
		{ID: "ncx", Href: "toc.ncx", MediaType: "application/x-dtbncx+xml"},
		{ID: "style", Href: "style.css", MediaType: "text/css"},
	}
	pkg.Spine = opfSpine{Toc: "ncx", Itemrefs: []opfItemref{{IDRef: "nav"}}}
	for i, docs := range b.Chapters {
		for j, doc := range docs {
			id := sectionID(i, j)
			pkg.Manifest = append(pkg.Manifest, opfItem{ID: id, Href: "Text/" + doc.File.Href, MediaType: mediaXHTML})
			pkg.Spine.Itemrefs = append(pkg.Spine.Itemrefs, opfItemref{IDRef: id})
		}
	}
	for i, asset := range b.Images {
		pkg.Manifest = append(pkg.Manifest, opfItem{
			ID:        fmt.Sprintf("image_%d", i),
			Href:      escapePath(asset.Path),
			MediaType: asset.ContentType,
		})
	}
	return pkg
}

func (b *Book) navDocument() navDocument {
	doc := navDocument{
		XmlnsEpub: epubNamespace,
		Title:     b.Metadata.Title,
		Nav:       navBlock{Type: "toc", ID: "toc", Heading: b.Metadata.Title},
	}
	for i, docs := range b.Chapters {
		if len(docs) == 0 {
			continue
		}
		doc.Nav.Entries = append(doc.Nav.Entries, navItem{Link: navLink{
			Href:  "Text/" + docs[0].File.Href,
			Label: b.chapterLabel(i),
		}})
	}
	return doc
}

func (b *Book) ncxDocument() ncx {
	doc := ncx{
		Version: "2005-1",
		Meta: []ncxMeta{
			{Name: "dtb:uid", Content: b.Metadata.Identifier},
			{Name: "dtb:depth", Content: "1"},
			{Name: "dtb:totalPageCount", Content: "0"},
			{Name: "dtb:maxPageNumber", Content: "0"},
		},
		DocTitle: b.Metadata.Title,
	}
	for i, docs := range b.Chapters {
		if len(docs) == 0 {
			continue
		}
		doc.NavMap = append(doc.NavMap, ncxNavPoint{
			ID:        fmt.Sprintf("navpoint-%d", i+1),
			PlayOrder: len(doc.NavMap) + 1,
			Label:     b.chapterLabel(i),
			Content:   ncxContent{Src: "Text/" + docs[0].File.Href},
		})
	}
	return doc
}

func (b *Book) chapterLabel(i int) string {
	if title := strings.TrimSpace(b.Titles[i]); title != "" {
		return title
	}
	return fmt.Sprintf("Chapter %d", i+1)
}

func sectionID(chapter, section int) string {
	return fmt.Sprintf("section_%d_%d", chapter+1, section)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func writeXML(zw *zip.Writer, name string, v any) error {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("epub: encode %s: %w", name, err)
	}
	return writeRaw(zw, name, append([]byte(xml.Header), append(out, '\n')...))
}

func writeNav(zw *zip.Writer, nav navDocument) error {
	out, err := xml.MarshalIndent(nav, "", "  ")
	if err != nil {
		return fmt.Errorf("epub: encode nav: %w", err)
	}
	content := xml.Header + "<!DOCTYPE html>\n" + string(out) + "\n"
	return writeRaw(zw, packageDir+"/nav.xhtml", []byte(content))
}

func writeRaw(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("epub: add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("epub: write %s: %w", name, err)
	}
	return nil
}
