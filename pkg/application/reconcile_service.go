package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/issuesync/pkg/domain/drift"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
	"github.com/felixgeelhaar/issuesync/pkg/retry"
)

// ReconcileService compares a spec document against remote state without
// mutating anything. It needs no mapping store: matching goes through the
// embedded slug marker alone, which makes it the recovery path after mapping
// loss.
type ReconcileService struct {
	client tracker.Client

	Retry        retry.Policy
	CallTimeout  time.Duration
	ParseOptions spec.Options
}

func NewReconcileService(client tracker.Client) *ReconcileService {
	return &ReconcileService{
		client:      client,
		Retry:       retry.DefaultPolicy(),
		CallTimeout: DefaultCallTimeout,
	}
}

// Run parses the document, fetches remote records, and classifies drift.
func (s *ReconcileService) Run(ctx context.Context, source string) (*drift.Report, error) {
	specs, err := spec.ParseWithOptions(source, s.ParseOptions)
	if err != nil {
		return nil, err
	}

	records, err := callRemote(ctx, s.Retry, s.CallTimeout, func(ctx context.Context) ([]tracker.Record, error) {
		return s.client.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote records: %w", err)
	}

	return drift.NewReconciler().Reconcile(specs, records), nil
}
