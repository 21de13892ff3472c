// Package chaptercache persists fetched chapter pages in SQLite so repeat
// downloads of an unchanged chapter skip the origin entirely.
//
// Entries are keyed by chapter location. A lookup only hits when the stored
// timestamp equals the one discovery reported, so any new reply on the origin
// invalidates the cached page.
package chaptercache
