package archive

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"glowficdl/internal/epub"
)

// fallbackTitle names books whose title is empty or entirely unusable.
const fallbackTitle = "glowfic"

// BookTitle returns the NFC-normalized display title.
func BookTitle(raw string) string {
	title := norm.NFC.String(strings.TrimSpace(raw))
	if title == "" {
		return fallbackTitle
	}
	return title
}

// OutputName returns the file name a book with the given title is written to.
func OutputName(title string) (string, error) {
	stem, err := epub.SanitizeFilename(BookTitle(title))
	if err != nil || strings.TrimSpace(stem) == "" {
		stem = fallbackTitle
	}
	return epub.SanitizeFilename(stem + ".epub")
}

// BookIdentifier derives a stable URN from the entry location, so downloading
// the same thread twice yields the same identifier.
func BookIdentifier(location string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(location))).String()
}
