// Package videoid extracts platform-level video identifiers from source URLs.
package videoid

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedURL is returned when no known URL pattern matches.
var ErrUnsupportedURL = errors.New("videoid: unsupported or malformed video url")

// Patterns are tried in order; the first match wins. The capture group is the
// platform-level video ID.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([^&\n?#]+)`),
	regexp.MustCompile(`youtu\.be/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
}

// Extract returns the platform-level video ID for a source URL.
func Extract(sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", ErrUnsupportedURL
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(sourceURL); len(m) == 2 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", ErrUnsupportedURL
}

// NamespaceUUID returns a deterministic UUIDv5 namespace for a domain.
func NamespaceUUID(domain string) uuid.UUID {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimSuffix(d, ".")
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(d))
}

// VideoUUID returns a deterministic UUIDv5 for an external video ID. Re-running
// a download for the same source always maps to the same Video row.
func VideoUUID(externalID string) uuid.UUID {
	ns := NamespaceUUID("youtube.com")
	return uuid.NewSHA1(ns, []byte(strings.TrimSpace(externalID)))
}
