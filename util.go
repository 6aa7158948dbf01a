package main

import (
	"regexp"
	"strings"
	"time"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// datetime returns a UTC timestamp with second precision, the format used for
// history records and screenshot names.
func datetime() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05Z")
}

// filenamify makes a string safe to use as a file name.
func filenamify(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	return whitespaceRun.ReplaceAllString(s, "_")
}

// slugFromURL returns the last path segment of a store URL.
func slugFromURL(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return trimmed
}

// titleFromURL derives a readable fallback title from an offer URL when the
// page itself yields none.
func titleFromURL(rawURL string) string {
	slug := slugFromURL(rawURL)
	if slug == "" {
		return "Unknown"
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
