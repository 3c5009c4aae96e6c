package application

import (
	"time"

	"github.com/felixgeelhaar/issuesync/pkg/domain/plan"
	"github.com/felixgeelhaar/issuesync/pkg/storage"
)

// ItemStatus is the per-slug outcome of a run.
type ItemStatus string

const (
	StatusApplied ItemStatus = "applied"
	StatusPlanned ItemStatus = "planned"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// Outcome is the top-level run indicator.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// ItemResult records what happened to one plan item.
type ItemResult struct {
	Slug     string        `json:"slug"`
	Action   plan.Action   `json:"action"`
	Status   ItemStatus    `json:"status"`
	RemoteID string        `json:"remote_id,omitempty"`
	Changes  *plan.Changes `json:"changes,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Summary is the machine-readable result of one sync run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Collection string        `json:"collection"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	DryRun     bool          `json:"dry_run"`
	Outcome    Outcome       `json:"outcome"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Closed  int `json:"closed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	Results []ItemResult `json:"results"`

	// Plan is embedded in preview mode only.
	Plan []plan.Item `json:"plan,omitempty"`

	// Mapping is an inline snapshot, present only when the entry count is
	// below the configured threshold.
	Mapping map[string]storage.Entry `json:"mapping,omitempty"`

	// SpecChangedSinceLastSync reports that the document's aggregate hash
	// differs from the one recorded at the previous successful sync.
	SpecChangedSinceLastSync bool `json:"spec_changed_since_last_sync,omitempty"`

	// PersistenceError reports a mapping save failure. Remote mutations
	// already took effect; reconciliation is the documented recovery path.
	PersistenceError string `json:"persistence_error,omitempty"`
}

func (s *Summary) tally() {
	s.Created, s.Updated, s.Closed, s.Skipped, s.Failed = 0, 0, 0, 0, 0
	for _, r := range s.Results {
		switch {
		case r.Status == StatusFailed:
			s.Failed++
		case r.Status == StatusSkipped:
			s.Skipped++
		case r.Action == plan.ActionCreate:
			s.Created++
		case r.Action == plan.ActionUpdate:
			s.Updated++
		case r.Action == plan.ActionClose:
			s.Closed++
		}
	}

	// A mapping save failure is a partial result even when every remote
	// call worked: the next run cannot rely on the fast path.
	switch {
	case s.Failed == 0 && s.PersistenceError == "":
		s.Outcome = OutcomeSuccess
	case len(s.Results) > 0 && s.Failed == len(s.Results):
		s.Outcome = OutcomeFailed
	default:
		s.Outcome = OutcomePartial
	}
}
