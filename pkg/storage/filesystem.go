package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// FilesystemStore persists the mapping document as JSON. Writes go through a
// temp file in the same directory followed by a rename, so a crash mid-write
// leaves the previous file intact. When a signing secret is configured the
// serialized document carries an HMAC-SHA256 signature and loads reject any
// mismatch.
type FilesystemStore struct {
	path        string
	secret      []byte
	collection  string
	retryConfig retry.Config
}

func NewFilesystemStore(path, collection string, secret []byte) *FilesystemStore {
	return &FilesystemStore{
		path:       path,
		secret:     secret,
		collection: collection,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

func (s *FilesystemStore) Load() (*Document, error) {
	retryer := retry.New[*Document](s.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*Document, error) {
		// #nosec G304 -- path comes from validated configuration
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return NewDocument(s.collection), nil
			}
			return nil, fmt.Errorf("failed to read mapping file: %w", err)
		}

		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mapping file: %w", err)
		}
		if doc.Entries == nil {
			doc.Entries = map[string]Entry{}
		}

		if len(s.secret) > 0 {
			if err := s.verify(&doc); err != nil {
				return nil, err
			}
		}
		return &doc, nil
	})
}

func (s *FilesystemStore) Save(doc *Document) error {
	doc.Version = DocumentVersion
	doc.GeneratedAt = time.Now().UTC()
	if doc.Collection == "" {
		doc.Collection = s.collection
	}

	doc.Signature = ""
	if len(s.secret) > 0 {
		payload, err := canonicalJSON(doc)
		if err != nil {
			return err
		}
		doc.Signature = s.sign(payload)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create mapping directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write mapping temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to commit mapping file: %w", err)
	}
	return nil
}

func (s *FilesystemStore) verify(doc *Document) error {
	sig := doc.Signature
	if sig == "" {
		return fmt.Errorf("%w: document is unsigned", ErrSignatureMismatch)
	}
	doc.Signature = ""
	payload, err := canonicalJSON(doc)
	doc.Signature = sig
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(s.sign(payload)), []byte(sig)) {
		return ErrSignatureMismatch
	}
	return nil
}

func (s *FilesystemStore) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalJSON serializes the document without its signature field. Go's
// encoding/json emits map keys in sorted order, which keeps the signature
// input stable.
func canonicalJSON(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize mapping for signing: %w", err)
	}
	return data, nil
}
