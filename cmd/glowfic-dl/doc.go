// Command glowfic-dl downloads Glowfic threads, boards and board sections
// and writes each as an EPUB book.
//
// Running "glowfic-dl <url>" is shorthand for "glowfic-dl download <url>".
// Other subcommands list a board's chapters without downloading, create a
// sample configuration file, inspect or clear the chapter cache, and check
// that directories and the site are reachable.
package main
