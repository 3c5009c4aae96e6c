// Package spec defines the declared, desired-state issue records parsed from
// a roadmap document, and their deterministic content fingerprint.
package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
)

// Status values a spec may declare. An empty status means "unset" and is
// treated as open by the planner.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// DefaultSlugPattern matches lowercase alphanumerics, '-' and '_', starting
// with an alphanumeric.
var DefaultSlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Spec is one declared work item. Instances are immutable once parsed; a run
// always works against a fresh collection.
type Spec struct {
	Slug      string         `json:"slug" yaml:"slug"`
	Title     string         `json:"title" yaml:"title"`
	Body      string         `json:"body" yaml:"body"`
	Labels    []string       `json:"labels" yaml:"labels"`
	Assignees []string       `json:"assignees" yaml:"assignees"`
	Milestone string         `json:"milestone" yaml:"milestone"`
	Status    string         `json:"status" yaml:"status"`
	Extra     map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`

	// Line is the 1-based line of the declaring heading in the source
	// document. Informational only; never hashed.
	Line int `json:"-" yaml:"-"`
}

// Hash returns a deterministic fingerprint of the spec's content. Label and
// assignee order does not affect the hash; body text is order-sensitive.
func (s *Spec) Hash() string {
	h := sha256.New()
	write := func(field, value string) {
		_, _ = fmt.Fprintf(h, "%s=%d:%s;", field, len(value), value)
	}
	write("slug", s.Slug)
	write("title", s.Title)
	write("body", s.Body)
	for _, l := range sortedCopy(s.Labels) {
		write("label", l)
	}
	for _, a := range sortedCopy(s.Assignees) {
		write("assignee", a)
	}
	write("milestone", s.Milestone)
	write("status", s.Status)
	return hex.EncodeToString(h.Sum(nil))
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

// CollectionHash fingerprints a whole parsed spec set. Used to report when
// the document changed since the last successful sync.
func CollectionHash(specs []Spec) string {
	h := sha256.New()
	for _, s := range sortedBySlug(specs) {
		_, _ = fmt.Fprintf(h, "%s:%s;", s.Slug, s.Hash())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SortBySlug orders specs deterministically for planning and reporting.
func SortBySlug(specs []Spec) {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Slug < specs[j].Slug })
}

func sortedBySlug(specs []Spec) []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	SortBySlug(out)
	return out
}
