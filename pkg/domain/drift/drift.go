// Package drift classifies disagreement between a spec collection and the
// records a remote tracker currently holds, without mutating either side.
package drift

import (
	"time"

	"github.com/felixgeelhaar/issuesync/pkg/domain/plan"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
)

// Kind classifies one drift entry.
type Kind string

const (
	// KindSpecOnly: declared in the spec, absent remotely.
	KindSpecOnly Kind = "spec_only"
	// KindRemoteOnly: present remotely, declared nowhere.
	KindRemoteOnly Kind = "remote_only"
	// KindDiff: matched pair whose fields disagree.
	KindDiff Kind = "diff"
)

// Entry is one detected discrepancy. Report-only, never persisted.
type Entry struct {
	Kind     Kind            `json:"kind"`
	Slug     string          `json:"slug,omitempty"`
	RemoteID string          `json:"remote_id,omitempty"`
	Spec     *spec.Spec      `json:"spec,omitempty"`
	Record   *tracker.Record `json:"record,omitempty"`
	Changes  *plan.Changes   `json:"changes,omitempty"`
}

// Report is the outcome of one reconcile pass.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`

	SpecOnly   int `json:"spec_only"`
	RemoteOnly int `json:"remote_only"`
	Diff       int `json:"diff"`
}

// InSync reports whether no drift was detected.
func (r *Report) InSync() bool {
	return len(r.Entries) == 0
}
