// Package tracker models the remote issue tracker boundary: the records it
// holds, the hidden slug marker embedded in their bodies, and the client
// interface the sync pipeline drives.
package tracker

import "context"

// Record states as reported by the tracker.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Record is a work item as currently known to the remote service. Records
// are fetched fresh per run and read-only within it.
type Record struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels"`
	Assignees []string `json:"assignees"`
	Milestone string   `json:"milestone"`
	State     string   `json:"state"`
}

// Draft is the mutable payload for a create or update call.
type Draft struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
	Milestone string
	State     string
}

// Client is the remote tracker boundary. Implementations must be safe for
// concurrent use; the executor may fan calls out across workers.
type Client interface {
	// List returns every record in the target collection, open and closed.
	List(ctx context.Context) ([]Record, error)
	// Create opens a new record and returns it with its assigned identifier.
	Create(ctx context.Context, draft Draft) (Record, error)
	// Update edits an existing record in place.
	Update(ctx context.Context, id string, draft Draft) (Record, error)
	// Close transitions a record to the closed state without deleting it.
	Close(ctx context.Context, id string) error
}
