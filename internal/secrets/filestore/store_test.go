package filestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(&Config{
		Dir:           t.TempDir(),
		EncryptionKey: "file-store-test-key",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := secrets.TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    1_700_000_000,
	}

	if err := store.Put(ctx, "1409723", record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "1409723")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != record {
		t.Errorf("Get() = %+v, want %+v", got, record)
	}
}

func TestRecordsAreEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	store, err := New(&Config{Dir: dir, EncryptionKey: "file-store-test-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	record := secrets.TokenRecord{AccessToken: "plainly-visible-token", RefreshToken: "r", ExpiresAt: 1}
	if err := store.Put(context.Background(), "7", record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "7.tok"))
	if err != nil {
		t.Fatalf("reading record file: %v", err)
	}
	if string(raw) == "" {
		t.Fatal("record file is empty")
	}
	if bytes.Contains(raw, []byte("plainly-visible-token")) {
		t.Error("record file contains the access token in plaintext")
	}
}

func TestGetUnknownOwnerIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "404")
	if !errors.IsType(err, errors.ErrTypeNotFound) {
		t.Errorf("Get() error = %v, want not_found", err)
	}
}

func TestCorruptedFileIsStorageErrorNotNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := New(&Config{Dir: dir, EncryptionKey: "file-store-test-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	record := secrets.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}
	if err := store.Put(ctx, "7", record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Corrupt the file in place; the store must fail closed
	path := filepath.Join(dir, "7.tok")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	_, err = store.Get(ctx, "7")
	if err == nil {
		t.Fatal("Get() accepted a corrupted record")
	}
	if errors.IsType(err, errors.ErrTypeNotFound) {
		t.Error("Get() reported a corrupted record as not found")
	}
	if !errors.IsType(err, errors.ErrTypeStorage) {
		t.Errorf("Get() error type = %v, want storage", errors.GetType(err))
	}
}

func TestWrongKeyFailsClosed(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	writer, err := New(&Config{Dir: dir, EncryptionKey: "key-one"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	record := secrets.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}
	if err := writer.Put(ctx, "7", record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reader, err := New(&Config{Dir: dir, EncryptionKey: "key-two"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = reader.Get(ctx, "7")
	if !errors.IsType(err, errors.ErrTypeStorage) {
		t.Errorf("Get() with wrong key error = %v, want storage", err)
	}
}

func TestListOwnerIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := secrets.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}
	for _, id := range []string{"10", "20"} {
		if err := store.Put(ctx, id, record); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	ids, err := store.ListOwnerIDs(ctx)
	if err != nil {
		t.Fatalf("ListOwnerIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListOwnerIDs() returned %v, want two ids", ids)
	}
}
