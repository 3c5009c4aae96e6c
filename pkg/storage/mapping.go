// Package storage persists the slug→remote-identifier mapping that makes
// repeated sync runs idempotent.
package storage

import (
	"errors"
	"time"
)

// DocumentVersion is bumped when the mapping file layout changes.
const DocumentVersion = 1

// DefaultSnapshotLimit bounds inline mapping snapshots embedded in run
// summaries.
const DefaultSnapshotLimit = 100

// ErrSignatureMismatch is returned when a signed mapping file fails
// verification. Loads fail closed: tampered state is never trusted.
var ErrSignatureMismatch = errors.New("mapping signature mismatch")

// Entry associates one slug with its remote identifier and the spec hash
// recorded at the last successful apply.
type Entry struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Document is the versioned mapping file payload.
type Document struct {
	Version     int              `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	Collection  string           `json:"collection"`
	SpecHash    string           `json:"spec_hash,omitempty"`
	Entries     map[string]Entry `json:"entries"`
	Signature   string           `json:"signature,omitempty"`
}

// NewDocument returns an empty mapping for a target collection.
func NewDocument(collection string) *Document {
	return &Document{
		Version:    DocumentVersion,
		Collection: collection,
		Entries:    map[string]Entry{},
	}
}

// Snapshot returns a copy of the entries when their count is within limit,
// nil otherwise. Large roadmaps never balloon summaries or logs.
func (d *Document) Snapshot(limit int) map[string]Entry {
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	if len(d.Entries) > limit {
		return nil
	}
	out := make(map[string]Entry, len(d.Entries))
	for k, v := range d.Entries {
		out[k] = v
	}
	return out
}

// Store abstracts mapping persistence so tests can run fully in memory.
type Store interface {
	// Load returns the current mapping, or a fresh empty document when none
	// has been persisted yet.
	Load() (*Document, error)
	// Save persists the mapping atomically: readers never observe a partial
	// write.
	Save(doc *Document) error
}
