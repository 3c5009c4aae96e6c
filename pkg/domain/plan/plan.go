// Package plan computes the ordered set of operations that bring the remote
// tracker into agreement with a parsed spec collection.
package plan

import (
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
)

// Action is one proposed operation kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionClose  Action = "close"
	ActionSkip   Action = "skip"
)

// Changes is the field-level diff between a spec and its remote record.
type Changes struct {
	TitleChanged     bool     `json:"title_changed,omitempty"`
	BodyChanged      bool     `json:"body_changed,omitempty"`
	MilestoneChanged bool     `json:"milestone_changed,omitempty"`
	StatusChanged    bool     `json:"status_changed,omitempty"`
	AssigneesChanged bool     `json:"assignees_changed,omitempty"`
	LabelsAdded      []string `json:"labels_added,omitempty"`
	LabelsRemoved    []string `json:"labels_removed,omitempty"`

	// Preview is a truncated excerpt of the new body, for display only. It
	// never participates in the change decision.
	Preview string `json:"preview,omitempty"`
}

// Any reports whether the diff contains at least one change.
func (c Changes) Any() bool {
	return c.TitleChanged || c.BodyChanged || c.MilestoneChanged ||
		c.StatusChanged || c.AssigneesChanged ||
		len(c.LabelsAdded) > 0 || len(c.LabelsRemoved) > 0
}

// Item is one proposed action. Exactly one Item exists per spec, plus
// synthetic close items for managed remote-only records when pruning.
type Item struct {
	Slug     string   `json:"slug"`
	Action   Action   `json:"action"`
	RemoteID string   `json:"remote_id,omitempty"`
	Hash     string   `json:"hash,omitempty"`
	Changes  *Changes `json:"changes,omitempty"`
}

// Known is a live mapping association consulted during matching.
type Known struct {
	ID   string
	Hash string
}

// DraftFor converts a spec into the tracker payload for a create or update,
// embedding the hidden slug marker into the body.
func DraftFor(s spec.Spec) tracker.Draft {
	state := tracker.StateOpen
	if s.Status == spec.StatusClosed {
		state = tracker.StateClosed
	}
	return tracker.Draft{
		Title:     s.Title,
		Body:      tracker.EmbedMarker(s.Body, s.Slug),
		Labels:    append([]string(nil), s.Labels...),
		Assignees: append([]string(nil), s.Assignees...),
		Milestone: s.Milestone,
		State:     state,
	}
}
