// Package epub lays out and packages the finished book.
//
// Section files are named "<chapter>-<section> (<title>).xhtml" with
// zero-padded indices and sanitized for the container. Sections are
// serialized as well-formed, pretty-printed XHTML, and the book is written as
// an EPUB 3 zip with an EPUB 2 NCX for older readers.
package epub
