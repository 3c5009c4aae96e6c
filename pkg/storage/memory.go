package storage

import "sync"

// MemoryStore is an in-memory Store for tests and offline runs.
type MemoryStore struct {
	mu  sync.Mutex
	doc *Document

	// SaveErr, when set, is returned by Save to exercise persistence
	// failure paths.
	SaveErr error
}

func NewMemoryStore(collection string) *MemoryStore {
	return &MemoryStore{doc: NewDocument(collection)}
}

func (s *MemoryStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.doc), nil
}

func (s *MemoryStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.doc = cloneDocument(doc)
	return nil
}

func cloneDocument(doc *Document) *Document {
	out := *doc
	out.Entries = make(map[string]Entry, len(doc.Entries))
	for k, v := range doc.Entries {
		out.Entries[k] = v
	}
	return &out
}
