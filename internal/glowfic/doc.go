// Package glowfic talks to the Glowfic Constellation.
//
// A Client resolves an entry URL (a post, a board, or a board section) into a
// BookSpec and fetches each chapter's flat view. Every request to the origin
// passes through a shared Limiter, so concurrent chapter fetches never exceed
// the configured request rate. Parsed pages are returned as x/net/html nodes
// for the render package to consume.
package glowfic
