package tracker

import (
	"fmt"
	"regexp"
	"strings"
)

// The marker is an HTML comment appended to a record's body on creation so a
// later run can recover the originating slug even after the title changes.
// It is a lookup aid only; when a mapping entry and a marker disagree, the
// mapping wins.
var markerRe = regexp.MustCompile(`<!--\s*issuesync:slug=([^\s]+)\s*-->`)

// Marker renders the hidden slug annotation for a body.
func Marker(slug string) string {
	return fmt.Sprintf("<!-- issuesync:slug=%s -->", slug)
}

// EmbedMarker appends the slug marker to a body, replacing any marker already
// present.
func EmbedMarker(body, slug string) string {
	body = StripMarker(body)
	if body == "" {
		return Marker(slug)
	}
	return body + "\n\n" + Marker(slug)
}

// ExtractSlug recovers the slug from a record body, if a marker is present.
func ExtractSlug(body string) (string, bool) {
	m := markerRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripMarker removes the marker and surrounding padding so body comparisons
// see only author-visible text.
func StripMarker(body string) string {
	return strings.TrimSpace(markerRe.ReplaceAllString(body, ""))
}
