package spec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// blockSchemaJSON constrains the decoded fenced block of every record.
// Unknown keys are allowed and carried through as extension fields.
const blockSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": { "type": "string", "minLength": 1 },
    "body": { "type": ["string", "null"] },
    "labels": { "type": "array", "items": { "type": "string" } },
    "assignees": { "type": "array", "items": { "type": "string" } },
    "milestone": { "type": ["string", "null"] },
    "status": { "enum": ["open", "closed", "", null] }
  }
}`

var blockSchemaLoader = gojsonschema.NewStringLoader(blockSchemaJSON)

var (
	headingRe = regexp.MustCompile(`^##\s+(\S+)\s*$`)
	fenceRe   = regexp.MustCompile("^```")
)

// Options configures parsing. The zero value uses DefaultSlugPattern.
type Options struct {
	SlugPattern *regexp.Regexp
}

// Parse reads a roadmap document and returns its specs in document order.
// It is a pure function of the input text and options. Any violation makes
// the whole document invalid; the returned *ParseError lists all of them.
func Parse(text string) ([]Spec, error) {
	return ParseWithOptions(text, Options{})
}

func ParseWithOptions(text string, opts Options) ([]Spec, error) {
	pattern := opts.SlugPattern
	if pattern == nil {
		pattern = DefaultSlugPattern
	}

	lines := strings.Split(text, "\n")
	var specs []Spec
	var violations []Violation
	seen := map[string]int{}

	for i := 0; i < len(lines); i++ {
		m := headingRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		headingLine := i + 1
		slug := m[1]

		if !pattern.MatchString(slug) {
			violations = append(violations, Violation{
				Line:   headingLine,
				Slug:   slug,
				Reason: fmt.Sprintf("slug does not match pattern %q", pattern.String()),
			})
		}
		if prev, dup := seen[slug]; dup {
			violations = append(violations, Violation{
				Line:   headingLine,
				Slug:   slug,
				Reason: fmt.Sprintf("duplicate slug (first declared at line %d)", prev),
			})
		} else {
			seen[slug] = headingLine
		}

		block, next, vs := extractBlock(lines, i+1, slug)
		i = next - 1
		if len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}

		s, vs := decodeBlock(block, slug, headingLine)
		if len(vs) > 0 {
			violations = append(violations, vs...)
			continue
		}
		s.Line = headingLine
		specs = append(specs, s)
	}

	if len(violations) > 0 {
		return nil, &ParseError{Violations: violations}
	}
	return specs, nil
}

// extractBlock finds the fenced block that must immediately follow a heading,
// tolerating blank lines only. It returns the block text and the index of the
// line after the closing fence.
func extractBlock(lines []string, start int, slug string) (string, int, []Violation) {
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !fenceRe.MatchString(lines[i]) {
		line := start
		if i < len(lines) {
			line = i + 1
		}
		return "", i, []Violation{{
			Line:   line,
			Slug:   slug,
			Reason: "heading must be immediately followed by a fenced block",
		}}
	}

	var body []string
	for j := i + 1; j < len(lines); j++ {
		if fenceRe.MatchString(lines[j]) {
			return strings.Join(body, "\n"), j + 1, nil
		}
		body = append(body, lines[j])
	}
	return "", len(lines), []Violation{{
		Line:   i + 1,
		Slug:   slug,
		Reason: "fenced block is never closed",
	}}
}

func decodeBlock(block, slug string, line int) (Spec, []Violation) {
	var decoded any
	if err := yaml.Unmarshal([]byte(block), &decoded); err != nil {
		return Spec{}, []Violation{{Line: line, Slug: slug, Reason: fmt.Sprintf("block is not valid YAML: %v", err)}}
	}
	raw, ok := decoded.(map[string]any)
	if !ok {
		return Spec{}, []Violation{{Line: line, Slug: slug, Reason: "block does not decode to a mapping"}}
	}

	result, err := gojsonschema.Validate(blockSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return Spec{}, []Violation{{Line: line, Slug: slug, Reason: fmt.Sprintf("block schema check failed: %v", err)}}
	}
	if !result.Valid() {
		var vs []Violation
		for _, e := range result.Errors() {
			vs = append(vs, Violation{Line: line, Slug: slug, Reason: e.String()})
		}
		return Spec{}, vs
	}

	s := Spec{
		Slug:      slug,
		Title:     stringField(raw, "title"),
		Body:      stringField(raw, "body"),
		Labels:    dedupe(stringList(raw, "labels")),
		Assignees: dedupe(stringList(raw, "assignees")),
		Milestone: strings.TrimSpace(stringField(raw, "milestone")),
		Status:    strings.TrimSpace(stringField(raw, "status")),
	}

	known := map[string]bool{"title": true, "body": true, "labels": true, "assignees": true, "milestone": true, "status": true}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]any{}
		}
		s.Extra[k] = v
	}
	return s, nil
}

// stringField coerces a missing or null value to the empty string so a bare
// "body:" key never surfaces as a literal null token.
func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func stringList(raw map[string]any, key string) []string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
