// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"

	playlistParam = "list"
)

// IsURLValid checks if the given URL is an absolute http(s) URL.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// Normalize trims spaces and prepends the https scheme when it is missing.
// Example: youtube.com/playlist?list=PL1 => https://youtube.com/playlist?list=PL1
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	if !strings.Contains(raw, "://") {
		raw = schemeHTTPS + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}

// PlaylistID returns the value of the "list" query parameter, or "".
func PlaylistID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return u.Query().Get(playlistParam)
}
