package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/issuesync/pkg/application"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
	"github.com/felixgeelhaar/issuesync/pkg/storage"
)

func TestReconcileService_ReportsDrift(t *testing.T) {
	client := tracker.NewMemoryClient(
		tracker.Record{ID: "1", Title: "Matched", Body: tracker.EmbedMarker("body", "matched"), Labels: []string{"bug"}, State: tracker.StateOpen},
		tracker.Record{ID: "2", Title: "Stray", Body: "no marker", State: tracker.StateOpen},
	)
	svc := application.NewReconcileService(client)

	doc := "## matched\n```yaml\ntitle: Matched\nbody: body\nlabels: [bug, ui]\n```\n" +
		"## unstarted\n```yaml\ntitle: Not yet filed\n```\n"
	report, err := svc.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.SpecOnly != 1 || report.RemoteOnly != 1 || report.Diff != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", report.SpecOnly, report.RemoteOnly, report.Diff)
	}
	if report.InSync() {
		t.Error("drift must be reported")
	}
}

func TestReconcileService_InSyncAfterSync(t *testing.T) {
	ctx := context.Background()
	client := tracker.NewMemoryClient()
	sync := application.NewSyncService(storage.NewMemoryStore("acme/widgets"), client)
	if _, err := sync.Run(ctx, firstSyncDoc, application.RunOptions{}); err != nil {
		t.Fatal(err)
	}

	report, err := application.NewReconcileService(client).Run(ctx, firstSyncDoc)
	if err != nil {
		t.Fatal(err)
	}
	if !report.InSync() {
		t.Errorf("a just-synced document must reconcile clean, got %+v", report.Entries)
	}
}

func TestReconcileService_ParseErrorPropagates(t *testing.T) {
	svc := application.NewReconcileService(tracker.NewMemoryClient())

	_, err := svc.Run(context.Background(), "## Bad Slug!\n")
	var pe *spec.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}
