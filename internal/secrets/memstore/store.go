// Package memstore implements the secret store in process memory.
//
// This backend is scoped to a single process and loses all records on
// restart. It is acceptable only for single-user or demo deployments and is
// explicitly not safe for concurrent multi-user production use: there is no
// durability, and a crash between a refresh and the next authorization drops
// the rotated refresh token permanently.
package memstore

import (
	"context"
	"sync"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

type Config struct{}

func (c *Config) Validate() error { return nil }

func (c *Config) GetType() string { return "memory" }

type Factory struct{}

func (f *Factory) Create(config secrets.StoreConfig) (secrets.Store, error) {
	if _, ok := config.(*Config); !ok {
		return nil, errors.ConfigError("invalid config type for memory store")
	}
	return New(), nil
}

func (f *Factory) GetType() string { return "memory" }

// Store keeps token records in a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	records map[string]secrets.TokenRecord
}

func New() *Store {
	return &Store{
		records: make(map[string]secrets.TokenRecord),
	}
}

func (s *Store) Put(ctx context.Context, ownerID string, record secrets.TokenRecord) error {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
	return nil
}

func (s *Store) Get(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[key]
	if !exists {
		return secrets.TokenRecord{}, errors.NotFoundError("token record for owner " + key)
	}
	return record, nil
}

func (s *Store) ListOwnerIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Health() error { return nil }
