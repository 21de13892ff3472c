// Package links maps post permalinks to their place in the book and
// rewrites hyperlinks in rendered sections accordingly.
//
// Links to replies or posts included in the archive become intra-book
// references; other same-site relative links become absolute links back to
// the site; links to other hosts are left alone.
package links
