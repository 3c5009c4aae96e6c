package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/issuesync/pkg/domain/plan"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
	"github.com/felixgeelhaar/issuesync/pkg/executor"
	"github.com/felixgeelhaar/issuesync/pkg/retry"
	"github.com/felixgeelhaar/issuesync/pkg/storage"
)

// DefaultCallTimeout bounds each individual remote call.
const DefaultCallTimeout = 30 * time.Second

// SyncService drives one reconciliation run: parse, plan, apply, persist.
// The mapping store is owned exclusively by this service and mutated only
// after a plan item's remote call succeeded.
type SyncService struct {
	store  storage.Store
	client tracker.Client

	Planner       *plan.Planner
	Retry         retry.Policy
	Executor      executor.Config
	CallTimeout   time.Duration
	ParseOptions  spec.Options
	SnapshotLimit int
}

func NewSyncService(store storage.Store, client tracker.Client) *SyncService {
	return &SyncService{
		store:         store,
		client:        client,
		Planner:       plan.NewPlanner(),
		Retry:         retry.DefaultPolicy(),
		CallTimeout:   DefaultCallTimeout,
		SnapshotLimit: storage.DefaultSnapshotLimit,
	}
}

// RunOptions carries the per-run switches.
type RunOptions struct {
	// DryRun stops after planning; neither the tracker nor the mapping
	// store is touched.
	DryRun bool
	// Prune closes managed remote-only records.
	Prune bool
	// EmbedPlan includes the computed plan in the summary.
	EmbedPlan bool
}

// Run executes the pipeline against a spec document. Parse and fetch errors
// abort before any mutation; per-item apply failures are recorded in the
// summary without stopping sibling items.
func (s *SyncService) Run(ctx context.Context, source string, opts RunOptions) (*Summary, error) {
	started := time.Now()
	runID := "sync-" + uuid.NewString()
	fsm, err := NewRunStateMachine(runID)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}

	specs, err := spec.ParseWithOptions(source, s.ParseOptions)
	if err != nil {
		return nil, err
	}
	specBySlug := make(map[string]spec.Spec, len(specs))
	for _, sp := range specs {
		specBySlug[sp.Slug] = sp
	}

	records, err := callRemote(ctx, s.Retry, s.CallTimeout, func(ctx context.Context) ([]tracker.Record, error) {
		return s.client.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote records: %w", err)
	}

	if err := fsm.Advance("plan"); err != nil {
		return nil, err
	}
	known := make(map[string]plan.Known, len(doc.Entries))
	for slug, entry := range doc.Entries {
		known[slug] = plan.Known{ID: entry.ID, Hash: entry.Hash}
	}
	items := s.Planner.Plan(specs, records, known, opts.Prune)

	specHash := spec.CollectionHash(specs)
	summary := &Summary{
		RunID:                    runID,
		Collection:               doc.Collection,
		StartedAt:                started.UTC(),
		DryRun:                   opts.DryRun,
		SpecChangedSinceLastSync: doc.SpecHash != "" && doc.SpecHash != specHash,
	}
	if opts.EmbedPlan || opts.DryRun {
		summary.Plan = items
	}

	if opts.DryRun {
		if err := fsm.Advance("preview"); err != nil {
			return nil, err
		}
		for _, item := range items {
			status := StatusPlanned
			if item.Action == plan.ActionSkip {
				status = StatusSkipped
			}
			summary.Results = append(summary.Results, ItemResult{
				Slug: item.Slug, Action: item.Action, Status: status,
				RemoteID: item.RemoteID, Changes: item.Changes,
			})
		}
		summary.tally()
		summary.Mapping = doc.Snapshot(s.SnapshotLimit)
		summary.Duration = time.Since(started)
		return summary, nil
	}

	if err := fsm.Advance("apply"); err != nil {
		return nil, err
	}
	outcomes := executor.Process(ctx, s.Executor, items, func(ctx context.Context, item plan.Item) applyOutcome {
		return s.apply(ctx, item, specBySlug)
	})
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].result.Slug < outcomes[j].result.Slug })

	if err := fsm.Advance("persist"); err != nil {
		return nil, err
	}
	anyFailed := false
	for _, o := range outcomes {
		summary.Results = append(summary.Results, o.result)
		if o.result.Status == StatusFailed {
			anyFailed = true
			continue
		}
		if o.remove {
			delete(doc.Entries, o.result.Slug)
		} else if o.entry != nil {
			doc.Entries[o.result.Slug] = *o.entry
		}
	}

	// Entries whose slug disappeared from the document are pruned only on
	// fully successful runs, so a partial failure never drops associations
	// it might still need.
	if !anyFailed {
		for slug := range doc.Entries {
			if _, declared := specBySlug[slug]; !declared {
				delete(doc.Entries, slug)
			}
		}
		doc.SpecHash = specHash
	}

	if err := s.store.Save(doc); err != nil {
		summary.PersistenceError = err.Error()
	}
	if err := fsm.Advance("finish"); err != nil {
		return nil, err
	}

	summary.tally()
	summary.Mapping = doc.Snapshot(s.SnapshotLimit)
	summary.Duration = time.Since(started)
	return summary, nil
}

type applyOutcome struct {
	result ItemResult
	entry  *storage.Entry
	remove bool
}

// apply executes one plan item. Each item is independent and idempotent:
// re-running after a partial failure re-plans from current remote state and
// only touches what still differs.
func (s *SyncService) apply(ctx context.Context, item plan.Item, specs map[string]spec.Spec) applyOutcome {
	result := ItemResult{Slug: item.Slug, Action: item.Action, RemoteID: item.RemoteID, Changes: item.Changes}

	switch item.Action {
	case plan.ActionSkip:
		result.Status = StatusSkipped
		return applyOutcome{result: result, entry: &storage.Entry{ID: item.RemoteID, Hash: item.Hash}}

	case plan.ActionCreate:
		draft := plan.DraftFor(specs[item.Slug])
		created, err := callRemote(ctx, s.Retry, s.CallTimeout, func(ctx context.Context) (tracker.Record, error) {
			return s.client.Create(ctx, draft)
		})
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return applyOutcome{result: result}
		}
		result.Status = StatusApplied
		result.RemoteID = created.ID
		return applyOutcome{result: result, entry: &storage.Entry{ID: created.ID, Hash: item.Hash}}

	case plan.ActionUpdate:
		draft := plan.DraftFor(specs[item.Slug])
		updated, err := callRemote(ctx, s.Retry, s.CallTimeout, func(ctx context.Context) (tracker.Record, error) {
			return s.client.Update(ctx, item.RemoteID, draft)
		})
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return applyOutcome{result: result}
		}
		result.Status = StatusApplied
		return applyOutcome{result: result, entry: &storage.Entry{ID: updated.ID, Hash: item.Hash}}

	case plan.ActionClose:
		_, err := callRemote(ctx, s.Retry, s.CallTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.client.Close(ctx, item.RemoteID)
		})
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return applyOutcome{result: result}
		}
		result.Status = StatusApplied
		return applyOutcome{result: result, remove: true}

	default:
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("unknown action %q", item.Action)
		return applyOutcome{result: result}
	}
}

// callRemote runs op under the classified retry policy, with each attempt
// bounded by its own timeout. Backoff sleeps never count against the call
// timeout.
func callRemote[T any](ctx context.Context, policy retry.Policy, callTimeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	t := timeout.New[T](timeout.Config{DefaultTimeout: callTimeout})
	return retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
		return t.Execute(ctx, callTimeout, op)
	})
}
