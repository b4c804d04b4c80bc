package filesystem

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileURL returns the file:// URL for a local path.
func FileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// LocalPath converts a file:// URL to a local path.
// Bare paths pass through unchanged.
func LocalPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return filepath.FromSlash(u.Path)
	}
	return strings.TrimPrefix(uri, "file://")
}
