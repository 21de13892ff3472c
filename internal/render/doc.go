// Package render turns fetched post containers into normalized post
// fragments and packs them into size-bounded sections.
//
// Rendering moves each post's content nodes into a fresh
// <div class="post"> fragment: an anchor, a "character / screen name /
// author" header, the avatar (pointing into the image registry), then the
// original content. Sections are filled greedily and never split a post.
package render
