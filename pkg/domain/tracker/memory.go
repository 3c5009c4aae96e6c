package tracker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryClient is an in-process Client used for offline runs and tests. It
// assigns sequential numeric identifiers the way a real tracker would.
type MemoryClient struct {
	mu      sync.Mutex
	nextID  int
	records map[string]Record

	// Optional failure hooks for exercising error paths.
	CreateErr func(draft Draft) error
	UpdateErr func(id string) error
}

func NewMemoryClient(seed ...Record) *MemoryClient {
	c := &MemoryClient{nextID: 1, records: map[string]Record{}}
	for _, r := range seed {
		c.records[r.ID] = r
		if n, err := strconv.Atoi(r.ID); err == nil && n >= c.nextID {
			c.nextID = n + 1
		}
	}
	return c
}

func (c *MemoryClient) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	return out, nil
}

func (c *MemoryClient) Create(ctx context.Context, draft Draft) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CreateErr != nil {
		if err := c.CreateErr(draft); err != nil {
			return Record{}, err
		}
	}
	r := Record{
		ID:        strconv.Itoa(c.nextID),
		Title:     draft.Title,
		Body:      draft.Body,
		Labels:    append([]string(nil), draft.Labels...),
		Assignees: append([]string(nil), draft.Assignees...),
		Milestone: draft.Milestone,
		State:     StateOpen,
	}
	if draft.State != "" {
		r.State = draft.State
	}
	c.nextID++
	c.records[r.ID] = r
	return r, nil
}

func (c *MemoryClient) Update(ctx context.Context, id string, draft Draft) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.UpdateErr != nil {
		if err := c.UpdateErr(id); err != nil {
			return Record{}, err
		}
	}
	r, ok := c.records[id]
	if !ok {
		return Record{}, fmt.Errorf("record %s not found", id)
	}
	r.Title = draft.Title
	r.Body = draft.Body
	r.Labels = append([]string(nil), draft.Labels...)
	r.Assignees = append([]string(nil), draft.Assignees...)
	r.Milestone = draft.Milestone
	if draft.State != "" {
		r.State = draft.State
	}
	c.records[id] = r
	return r, nil
}

func (c *MemoryClient) Close(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	if !ok {
		return fmt.Errorf("record %s not found", id)
	}
	r.State = StateClosed
	c.records[id] = r
	return nil
}

// Snapshot returns a copy of the current records, for test assertions.
func (c *MemoryClient) Snapshot() map[string]Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Record, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}
