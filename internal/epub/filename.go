package epub

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxNameBytes is the longest file name the container accepts.
const MaxNameBytes = 255

var (
	// ErrInvalidName is returned when nothing usable is left after sanitizing.
	ErrInvalidName = errors.New("epub: file name has no valid characters")
	// ErrExtensionTooLong is returned when the extension alone exceeds MaxNameBytes.
	ErrExtensionTooLong = errors.New("epub: file extension longer than 255 bytes")
)

const bannedChars = "/\\\"*:<>?|\u007f"

var bannedRanges = [][2]rune{
	{0x0000, 0x001f},    // C0
	{0x0080, 0x009f},    // C1
	{0xe000, 0xf8ff},    // private use
	{0xfdd0, 0xfdef},    // noncharacters
	{0xfff0, 0xffff},    // specials
	{0xe0000, 0xe0fff},  // tags and variation selectors supplement
	{0xf0000, 0x10ffff}, // supplementary private use A and B
}

func banned(r rune) bool {
	if strings.ContainsRune(bannedChars, r) {
		return true
	}
	for _, span := range bannedRanges {
		if r >= span[0] && r <= span[1] {
			return true
		}
	}
	return false
}

// SanitizeFilename makes name safe to use inside the container: banned
// characters are removed, trailing dots trimmed, and over-long names cut from
// the end of the stem so the extension survives.
func SanitizeFilename(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == utf8.RuneError || banned(r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimRight(b.String(), ".")
	if cleaned == "" {
		return "", ErrInvalidName
	}
	if len(cleaned) <= MaxNameBytes {
		return cleaned, nil
	}

	dot := strings.LastIndexByte(cleaned, '.')
	if dot < 0 {
		return trimRunes(cleaned, MaxNameBytes), nil
	}
	stem, ext := cleaned[:dot], cleaned[dot+1:]
	// The dot needs a byte of its own.
	if len(ext)+1 > MaxNameBytes {
		return "", ErrExtensionTooLong
	}
	return trimRunes(stem, MaxNameBytes-len(ext)-1) + "." + ext, nil
}

// trimRunes drops whole runes from the end of s until it fits in limit bytes.
func trimRunes(s string, limit int) string {
	for len(s) > limit {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
