package storage_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/issuesync/pkg/storage"
)

func tempStore(t *testing.T, secret []byte) (*storage.FilesystemStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.json")
	return storage.NewFilesystemStore(path, "acme/widgets", secret), path
}

func TestFilesystemStore_LoadMissingFile(t *testing.T) {
	store, _ := tempStore(t, nil)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Collection != "acme/widgets" || len(doc.Entries) != 0 {
		t.Errorf("unexpected fresh document: %+v", doc)
	}
}

func TestFilesystemStore_SaveLoadRoundTrip(t *testing.T) {
	store, path := tempStore(t, nil)

	doc := storage.NewDocument("acme/widgets")
	doc.Entries["api-timeouts"] = storage.Entry{ID: "17", Hash: "abc"}
	doc.SpecHash = "whole-doc-hash"
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Entries["api-timeouts"].ID != "17" || loaded.SpecHash != "whole-doc-hash" {
		t.Errorf("round trip lost data: %+v", loaded)
	}
	if loaded.Version != storage.DocumentVersion || loaded.GeneratedAt.IsZero() {
		t.Errorf("document metadata missing: %+v", loaded)
	}

	// No temp file may survive a successful save.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestFilesystemStore_CrashBeforeRenameKeepsPreviousFile(t *testing.T) {
	store, path := tempStore(t, nil)

	doc := storage.NewDocument("acme/widgets")
	doc.Entries["a"] = storage.Entry{ID: "1", Hash: "h1"}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash between temp-write and rename: a half-written temp
	// file exists next to the committed mapping.
	if err := os.WriteFile(path+".tmp", []byte(`{"version":1,"entr`), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after simulated crash error = %v", err)
	}
	if loaded.Entries["a"].ID != "1" {
		t.Errorf("previous mapping lost: %+v", loaded)
	}
}

func TestFilesystemStore_SignatureRoundTrip(t *testing.T) {
	secret := []byte("sync-secret")
	store, _ := tempStore(t, secret)

	doc := storage.NewDocument("acme/widgets")
	doc.Entries["a"] = storage.Entry{ID: "1", Hash: "h"}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() of signed mapping error = %v", err)
	}
	if loaded.Signature == "" {
		t.Error("signed save must persist a signature")
	}
}

func TestFilesystemStore_TamperedFileFailsClosed(t *testing.T) {
	secret := []byte("sync-secret")
	store, path := tempStore(t, secret)

	doc := storage.NewDocument("acme/widgets")
	doc.Entries["a"] = storage.Entry{ID: "1", Hash: "h"}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	// Tamper with an entry, keeping the document valid JSON.
	raw, _ := os.ReadFile(path)
	var tampered map[string]any
	_ = json.Unmarshal(raw, &tampered)
	tampered["entries"] = map[string]any{"a": map[string]any{"id": "999", "hash": "h"}}
	out, _ := json.Marshal(tampered)
	if err := os.WriteFile(path, out, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(); !errors.Is(err, storage.ErrSignatureMismatch) {
		t.Errorf("tampered mapping must be rejected, got %v", err)
	}
}

func TestFilesystemStore_UnsignedFileRejectedWhenSigningEnabled(t *testing.T) {
	unsigned, path := tempStore(t, nil)
	doc := storage.NewDocument("acme/widgets")
	if err := unsigned.Save(doc); err != nil {
		t.Fatal(err)
	}

	signed := storage.NewFilesystemStore(path, "acme/widgets", []byte("secret"))
	if _, err := signed.Load(); !errors.Is(err, storage.ErrSignatureMismatch) {
		t.Errorf("unsigned mapping must be rejected under signing mode, got %v", err)
	}
}

func TestDocument_Snapshot(t *testing.T) {
	doc := storage.NewDocument("c")
	for _, slug := range []string{"a", "b", "c"} {
		doc.Entries[slug] = storage.Entry{ID: slug, Hash: "h"}
	}

	if got := doc.Snapshot(2); got != nil {
		t.Errorf("snapshot above limit must be suppressed, got %v", got)
	}
	got := doc.Snapshot(10)
	if len(got) != 3 {
		t.Fatalf("snapshot within limit must include all entries, got %v", got)
	}
	got["a"] = storage.Entry{ID: "mutated"}
	if doc.Entries["a"].ID == "mutated" {
		t.Error("snapshot must be a copy")
	}
}
