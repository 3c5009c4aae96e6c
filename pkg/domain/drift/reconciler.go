package drift

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/issuesync/pkg/domain/plan"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
)

// Reconciler compares specs against remote records. It has no mapping
// dependency: matching goes purely through the embedded slug marker.
type Reconciler struct {
	planner *plan.Planner
}

func NewReconciler() *Reconciler {
	return &Reconciler{planner: plan.NewPlanner()}
}

// Reconcile classifies every spec and record into spec_only, remote_only, or
// diff entries. Matched pairs whose fields agree produce no entry. Entries
// are slug-ordered (remote-only entries without a slug sort by identifier).
func (r *Reconciler) Reconcile(specs []spec.Spec, records []tracker.Record) *Report {
	byMarker := make(map[string]tracker.Record, len(records))
	for _, rec := range records {
		if slug, ok := tracker.ExtractSlug(rec.Body); ok {
			if _, dup := byMarker[slug]; !dup {
				byMarker[slug] = rec
			}
		}
	}

	report := &Report{
		ID:        "reconcile-" + uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]Entry, 0),
	}
	matchedIDs := make(map[string]bool, len(specs))

	for i := range specs {
		s := specs[i]
		rec, ok := byMarker[s.Slug]
		if !ok {
			report.Entries = append(report.Entries, Entry{Kind: KindSpecOnly, Slug: s.Slug, Spec: &specs[i]})
			continue
		}
		matchedIDs[rec.ID] = true

		changes := r.planner.Diff(s, rec)
		if changes.Any() {
			matched := rec
			report.Entries = append(report.Entries, Entry{
				Kind:     KindDiff,
				Slug:     s.Slug,
				RemoteID: rec.ID,
				Spec:     &specs[i],
				Record:   &matched,
				Changes:  &changes,
			})
		}
	}

	for i := range records {
		rec := records[i]
		// A closed stray is settled state, not drift: pruning a record
		// must not leave a permanent remote_only entry behind.
		if matchedIDs[rec.ID] || rec.State == tracker.StateClosed {
			continue
		}
		slug, _ := tracker.ExtractSlug(rec.Body)
		report.Entries = append(report.Entries, Entry{Kind: KindRemoteOnly, Slug: slug, RemoteID: rec.ID, Record: &records[i]})
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.Slug != b.Slug {
			return a.Slug < b.Slug
		}
		return a.RemoteID < b.RemoteID
	})

	for _, e := range report.Entries {
		switch e.Kind {
		case KindSpecOnly:
			report.SpecOnly++
		case KindRemoteOnly:
			report.RemoteOnly++
		case KindDiff:
			report.Diff++
		}
	}
	return report
}
