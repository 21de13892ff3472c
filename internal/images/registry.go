package images

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

var (
	// ErrSealed is returned when a new source is added after Seal.
	ErrSealed = errors.New("images: registry sealed")
	// ErrNotSealed is returned when a path is requested before Seal.
	ErrNotSealed = errors.New("images: registry not sealed")
	// ErrUnknownSource is returned for a source that was never added.
	ErrUnknownSource = errors.New("images: unknown source")
)

// Entry is one distinct avatar.
type Entry struct {
	Source    string
	Sequence  int
	Extension string
}

// Registry maps avatar source URLs to stable generated names.
// It is not safe for concurrent use.
type Registry struct {
	entries []Entry
	index   map[string]int
	sealed  bool
	width   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add registers source if it has not been seen. Adding a known source is a
// no-op, before or after sealing.
func (r *Registry) Add(source string) error {
	if _, ok := r.index[source]; ok {
		return nil
	}
	if r.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, source)
	}
	r.index[source] = len(r.entries)
	r.entries = append(r.entries, Entry{
		Source:    source,
		Sequence:  len(r.entries),
		Extension: extension(source),
	})
	return nil
}

// Seal freezes the registry and fixes the sequence width from the final count.
func (r *Registry) Seal() {
	if r.sealed {
		return
	}
	r.sealed = true
	last := 0
	if len(r.entries) > 0 {
		last = len(r.entries) - 1
	}
	r.width = len(strconv.Itoa(last))
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Len returns the number of distinct sources.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the registered sources in first-seen order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Path returns the archive path for source, relative to the package
// directory, e.g. "Images/icon07.png".
func (r *Registry) Path(source string) (string, error) {
	if !r.sealed {
		return "", ErrNotSealed
	}
	i, ok := r.index[source]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return r.entryPath(r.entries[i]), nil
}

func (r *Registry) entryPath(e Entry) string {
	return fmt.Sprintf("Images/icon%0*d.%s", r.width, e.Sequence, e.Extension)
}

func extension(source string) string {
	p := source
	if parsed, err := url.Parse(source); err == nil {
		p = parsed.Path
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return "img"
	}
	return strings.ToLower(ext)
}
