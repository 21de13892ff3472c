// Package images deduplicates and downloads post avatars.
//
// Avatars are registered in discovery order, the registry is sealed once
// every chapter has been scanned, and only then are archive paths handed
// out, so every path shares one zero-padding width. Downloads run
// concurrently without the origin rate limit; a failed avatar is logged and
// left out of the book.
package images
