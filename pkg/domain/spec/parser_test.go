package spec_test

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
)

const validDoc = "# Roadmap\n" +
	"\n" +
	"## api-timeouts\n" +
	"\n" +
	"```yaml\n" +
	"title: Fix API timeouts\n" +
	"labels: [bug, backend]\n" +
	"body: |\n" +
	"  Requests to /v1/search exceed 30s under load.\n" +
	"```\n" +
	"\n" +
	"## search-caching\n" +
	"```yaml\n" +
	"title: Cache search results\n" +
	"assignees: [mona]\n" +
	"milestone: v1.2\n" +
	"status: open\n" +
	"```\n"

func TestParse_ValidDocument(t *testing.T) {
	specs, err := spec.Parse(validDoc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	first := specs[0]
	if first.Slug != "api-timeouts" || first.Title != "Fix API timeouts" {
		t.Errorf("unexpected first spec: %+v", first)
	}
	if !reflect.DeepEqual(first.Labels, []string{"bug", "backend"}) {
		t.Errorf("unexpected labels: %v", first.Labels)
	}
	if !strings.Contains(first.Body, "/v1/search") {
		t.Errorf("body not carried through: %q", first.Body)
	}

	second := specs[1]
	if second.Milestone != "v1.2" || second.Status != "open" {
		t.Errorf("unexpected second spec: %+v", second)
	}
}

func TestParse_Deterministic(t *testing.T) {
	a, err := spec.Parse(validDoc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := spec.Parse(validDoc)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("parsing the same document twice must yield identical specs")
	}
}

func TestParse_Violations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing block",
			doc:  "## a-slug\n\nJust prose, no fence.\n",
			want: "fenced block",
		},
		{
			name: "unclosed fence",
			doc:  "## a-slug\n```yaml\ntitle: T\n",
			want: "never closed",
		},
		{
			name: "not a mapping",
			doc:  "## a-slug\n```yaml\n- just\n- a list\n```\n",
			want: "does not decode to a mapping",
		},
		{
			name: "missing title",
			doc:  "## a-slug\n```yaml\nlabels: [bug]\n```\n",
			want: "title",
		},
		{
			name: "bad slug",
			doc:  "## Not_A_Slug\n```yaml\ntitle: T\n```\n",
			want: "pattern",
		},
		{
			name: "bad status",
			doc:  "## a-slug\n```yaml\ntitle: T\nstatus: archived\n```\n",
			want: "status",
		},
		{
			name: "duplicate slug",
			doc:  "## a-slug\n```yaml\ntitle: T\n```\n## a-slug\n```yaml\ntitle: U\n```\n",
			want: "duplicate slug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := spec.Parse(tt.doc)
			if err == nil {
				t.Fatal("expected a parse error")
			}
			var pe *spec.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_CollectsAllViolations(t *testing.T) {
	doc := "## First!\n```yaml\ntitle: T\n```\n## ok-slug\n```yaml\nlabels: [x]\n```\n"
	_, err := spec.Parse(doc)
	var pe *spec.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if len(pe.Violations) < 2 {
		t.Errorf("expected every violation reported, got %d: %v", len(pe.Violations), pe.Violations)
	}
}

func TestParse_Normalization(t *testing.T) {
	doc := "## a-slug\n```yaml\ntitle: T\nbody:\nmilestone: \"   \"\nstatus:\nlabels: [bug, bug, ui]\n```\n"
	specs, err := spec.Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := specs[0]
	if s.Body != "" {
		t.Errorf("empty body must decode to empty string, got %q", s.Body)
	}
	if s.Milestone != "" {
		t.Errorf("whitespace milestone must normalize to unset, got %q", s.Milestone)
	}
	if s.Status != "" {
		t.Errorf("empty status must normalize to unset, got %q", s.Status)
	}
	if !reflect.DeepEqual(s.Labels, []string{"bug", "ui"}) {
		t.Errorf("labels must be de-duplicated in order, got %v", s.Labels)
	}
}

func TestParse_ExtensionFields(t *testing.T) {
	doc := "## a-slug\n```yaml\ntitle: T\npriority: p1\nestimate: 3d\n```\n"
	specs, err := spec.Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if specs[0].Extra["priority"] != "p1" || specs[0].Extra["estimate"] != "3d" {
		t.Errorf("extension fields must be carried through, got %v", specs[0].Extra)
	}
}

func TestParse_CustomSlugPattern(t *testing.T) {
	doc := "## ABC-123\n```yaml\ntitle: T\n```\n"
	if _, err := spec.Parse(doc); err == nil {
		t.Fatal("default pattern must reject uppercase slugs")
	}

	specs, err := spec.ParseWithOptions(doc, spec.Options{SlugPattern: regexp.MustCompile(`^[A-Z]+-\d+$`)})
	if err != nil {
		t.Fatalf("ParseWithOptions() error = %v", err)
	}
	if specs[0].Slug != "ABC-123" {
		t.Errorf("unexpected slug %q", specs[0].Slug)
	}
}
