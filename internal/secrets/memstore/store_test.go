package memstore

import (
	"context"
	"testing"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
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

func TestGetUnknownOwnerIsNotFound(t *testing.T) {
	store := New()

	_, err := store.Get(context.Background(), "42")
	if err == nil {
		t.Fatal("Get() expected error for unknown owner")
	}
	if !errors.IsType(err, errors.ErrTypeNotFound) {
		t.Errorf("Get() error type = %v, want not_found", errors.GetType(err))
	}
}

func TestPutOverwritesExistingRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := secrets.TokenRecord{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 100}
	second := secrets.TokenRecord{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 200}

	if err := store.Put(ctx, "7", first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "7", second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "7")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != second {
		t.Errorf("Get() = %+v, want the overwriting record %+v", got, second)
	}
}

func TestKeysAreCanonicalized(t *testing.T) {
	store := New()
	ctx := context.Background()

	record := secrets.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}

	// Write with a padded numeric form, read with the canonical one
	if err := store.Put(ctx, "0042", record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := store.Get(ctx, "42"); err != nil {
		t.Errorf("Get() with canonical id failed after padded Put: %v", err)
	}

	if err := store.Put(ctx, "athlete-one", record); err == nil {
		t.Error("Put() accepted a non-numeric owner id")
	}
}

func TestListOwnerIDs(t *testing.T) {
	store := New()
	ctx := context.Background()

	record := secrets.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}
	for _, id := range []string{"1", "2", "3"} {
		if err := store.Put(ctx, id, record); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	ids, err := store.ListOwnerIDs(ctx)
	if err != nil {
		t.Fatalf("ListOwnerIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("ListOwnerIDs() returned %d ids, want 3", len(ids))
	}
}
