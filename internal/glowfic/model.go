package glowfic

import (
	"time"

	"golang.org/x/net/html"
)

// StampedLocation is a chapter URL together with its last-update time.
type StampedLocation struct {
	URL   string
	Stamp time.Time
}

// BookSpec is the outcome of discovery: what to fetch and what to call it.
type BookSpec struct {
	Title    string
	Chapters []StampedLocation
}

// LastUpdate returns the latest chapter timestamp, or the zero time when the
// book has no chapters.
func (b BookSpec) LastUpdate() time.Time {
	var latest time.Time
	for _, ch := range b.Chapters {
		if ch.Stamp.After(latest) {
			latest = ch.Stamp
		}
	}
	return latest
}

// ChapterPage is one parsed chapter in flat view.
type ChapterPage struct {
	Location StampedLocation
	Title    string
	// Posts holds the div.post-container nodes in page order.
	Posts []*html.Node
	// Cached reports whether the page came from the chapter store.
	Cached bool
}
