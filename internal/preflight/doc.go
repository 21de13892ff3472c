// Package preflight provides readiness checks for the filesystem paths and
// remote endpoints a download depends on.
//
// The CLI "glowfic-dl preflight" command runs RunAll and prints one line per
// check. Checks for disabled features are skipped.
package preflight
