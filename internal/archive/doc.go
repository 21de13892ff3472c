// Package archive runs one download from entry location to finished book.
//
// Run owns every piece of shared state for the run (the rate limiter, the
// image registry, the author set and the link index) and drives the stages
// in order:
//
//   - discover the chapter list
//   - fetch every chapter concurrently under the rate limiter
//   - register avatars, render posts and split them into sections
//   - name section files and rewrite cross-references
//   - download avatars concurrently
//   - assemble and write the EPUB
//
// A file lock in the state directory keeps a second process from running at
// the same time, so the per-process rate limit is also a per-host one.
package archive
