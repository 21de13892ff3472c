package glowfic

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// CookieName is the session cookie the site issues on sign-in.
const CookieName = "_glowfic_constellation_production"

// LoadCookie reads a "name=value" session cookie from path. A missing file is
// not an error and yields a nil cookie.
func LoadCookie(path string) (*http.Cookie, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	name, value, ok := strings.Cut(strings.TrimSpace(string(data)), "=")
	if !ok || strings.TrimSpace(name) != CookieName {
		return nil, fmt.Errorf("cookie file %s must start with %q (no quotes)", path, CookieName+"=")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("cookie file %s has an empty value", path)
	}
	return &http.Cookie{Name: CookieName, Value: value}, nil
}
