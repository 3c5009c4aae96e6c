package spec

import (
	"fmt"
	"strings"
)

// Violation describes one problem found while parsing or validating the
// source document.
type Violation struct {
	Line   int    `json:"line"`
	Slug   string `json:"slug,omitempty"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Slug != "" {
		return fmt.Sprintf("line %d (%s): %s", v.Line, v.Slug, v.Reason)
	}
	return fmt.Sprintf("line %d: %s", v.Line, v.Reason)
}

// ParseError aggregates every violation found in a document. A document that
// produces one is rejected whole; no partial spec set is ever returned.
type ParseError struct {
	Violations []Violation
}

func (e *ParseError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid spec document: " + e.Violations[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid spec document (%d problems):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - " + v.String())
	}
	return b.String()
}
