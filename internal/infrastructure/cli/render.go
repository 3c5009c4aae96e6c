package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/issuesync/pkg/application"
	"github.com/felixgeelhaar/issuesync/pkg/domain/drift"
	"github.com/felixgeelhaar/issuesync/pkg/domain/plan"
)

// Styles
var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var (
	createStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	updateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	closeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func actionStyle(a plan.Action) lipgloss.Style {
	switch a {
	case plan.ActionCreate:
		return createStyle
	case plan.ActionUpdate:
		return updateStyle
	case plan.ActionClose:
		return closeStyle
	default:
		return skipStyle
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func renderPlan(items []plan.Item) {
	fmt.Println(headerStyle.Render("Plan"))
	if len(items) == 0 {
		fmt.Println("Nothing to do.")
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("%-7s %s", item.Action, item.Slug)
		if item.RemoteID != "" {
			line += fmt.Sprintf(" (#%s)", item.RemoteID)
		}
		fmt.Println(actionStyle(item.Action).Render(line))
		if item.Changes != nil {
			for _, c := range describeChanges(item.Changes) {
				fmt.Printf("        %s\n", c)
			}
		}
	}
}

func describeChanges(c *plan.Changes) []string {
	var out []string
	if c.TitleChanged {
		out = append(out, "title changed")
	}
	if c.BodyChanged {
		out = append(out, "body changed")
	}
	if c.MilestoneChanged {
		out = append(out, "milestone changed")
	}
	if c.StatusChanged {
		out = append(out, "status changed")
	}
	if c.AssigneesChanged {
		out = append(out, "assignees changed")
	}
	if len(c.LabelsAdded) > 0 {
		out = append(out, "labels added: "+strings.Join(c.LabelsAdded, ", "))
	}
	if len(c.LabelsRemoved) > 0 {
		out = append(out, "labels removed: "+strings.Join(c.LabelsRemoved, ", "))
	}
	return out
}

func renderSummary(s *application.Summary) {
	title := "Sync " + string(s.Outcome)
	if s.DryRun {
		title = "Dry run"
	}
	fmt.Println(headerStyle.Render(title))
	fmt.Printf("Run %s against %s in %s\n", s.RunID, s.Collection, s.Duration.Round(time.Millisecond))
	fmt.Printf("created %d, updated %d, closed %d, skipped %d, failed %d\n",
		s.Created, s.Updated, s.Closed, s.Skipped, s.Failed)
	if s.SpecChangedSinceLastSync {
		fmt.Println("Note: the document changed since the last successful sync.")
	}
	for _, r := range s.Results {
		if r.Status != application.StatusFailed {
			continue
		}
		fmt.Println(errStyle.Render(fmt.Sprintf("failed  %s: %s", r.Slug, r.Error)))
	}
	if s.PersistenceError != "" {
		fmt.Println(errStyle.Render("mapping save failed: " + s.PersistenceError))
		fmt.Println("Remote changes took effect; run reconcile to recover the mapping.")
	}
}

func renderReport(r *drift.Report) {
	fmt.Println(headerStyle.Render("Reconcile"))
	if r.InSync() {
		fmt.Println("Document and tracker are in sync.")
		return
	}
	fmt.Printf("%d spec-only, %d remote-only, %d diverged\n", r.SpecOnly, r.RemoteOnly, r.Diff)
	for _, e := range r.Entries {
		switch e.Kind {
		case drift.KindSpecOnly:
			fmt.Println(createStyle.Render("spec-only    " + e.Slug))
		case drift.KindRemoteOnly:
			fmt.Println(closeStyle.Render(fmt.Sprintf("remote-only  #%s %s", e.RemoteID, e.Record.Title)))
		case drift.KindDiff:
			fmt.Println(updateStyle.Render(fmt.Sprintf("diff         %s (#%s)", e.Slug, e.RemoteID)))
			if e.Changes != nil {
				for _, c := range describeChanges(e.Changes) {
					fmt.Printf("             %s\n", c)
				}
			}
		}
	}
}
