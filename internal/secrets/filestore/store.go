// Package filestore implements the secret store as one encrypted file per
// athlete under a dedicated directory. Records are serialized to JSON,
// sealed with AES-256-GCM and written atomically (temp file + rename), so a
// crash mid-write never leaves a torn record. Writes for the same owner are
// serialized with a per-key lock to keep a webhook-triggered refresh and the
// hourly sweep from interleaving.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/crypto"
	"activity-guard/internal/secrets"
)

const fileExt = ".tok"

type Config struct {
	// Dir is the directory holding one encrypted file per owner id
	Dir string
	// EncryptionKey is the passphrase for at-rest encryption
	EncryptionKey string
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.ConfigError("file store directory is required")
	}
	if c.EncryptionKey == "" {
		return errors.ConfigError("file store encryption key is required")
	}
	return nil
}

func (c *Config) GetType() string { return "file" }

type Factory struct{}

func (f *Factory) Create(config secrets.StoreConfig) (secrets.Store, error) {
	fileConfig, ok := config.(*Config)
	if !ok {
		return nil, errors.ConfigError("invalid config type for file store")
	}
	return New(fileConfig)
}

func (f *Factory) GetType() string { return "file" }

// Store persists encrypted token records on disk.
type Store struct {
	dir       string
	encryptor *crypto.RecordEncryptor

	// locks serializes writes per owner id
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	encryptor, err := crypto.NewRecordEncryptor(config.EncryptionKey)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(config.Dir, 0o700); err != nil {
		return nil, errors.StorageError("failed to create store directory", "", err)
	}

	return &Store{
		dir:       config.Dir,
		encryptor: encryptor,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// ownerLock returns the write lock for one owner id, creating it on first use.
func (s *Store) ownerLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, exists := s.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *Store) Put(ctx context.Context, ownerID string, record secrets.TokenRecord) error {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return errors.StorageError("failed to serialize record", key, err)
	}

	ciphertext, err := s.encryptor.Encrypt(plaintext)
	if err != nil {
		return errors.StorageError("failed to encrypt record", key, err)
	}

	lock := s.ownerLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Write to a temp file in the same directory, then rename over the
	// target. Rename is atomic on POSIX filesystems, so readers see either
	// the old record or the new one, never a partial write.
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return errors.StorageError("failed to create temp file", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.StorageError("failed to write record", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.StorageError("failed to close temp file", key, err)
	}

	if err := os.Rename(tmpName, s.recordPath(key)); err != nil {
		os.Remove(tmpName)
		return errors.StorageError("failed to replace record file", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	ciphertext, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return secrets.TokenRecord{}, errors.NotFoundError("token record for owner " + key)
		}
		return secrets.TokenRecord{}, errors.StorageError("failed to read record file", key, err)
	}

	// Decryption failure is a storage error, never "no data": returning
	// NotFound here would send the user back through authorization and
	// silently orphan the stored refresh token.
	plaintext, err := s.encryptor.Decrypt(ciphertext)
	if err != nil {
		return secrets.TokenRecord{}, errors.StorageError("failed to decrypt record", key, err)
	}

	var record secrets.TokenRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return secrets.TokenRecord{}, errors.StorageError("failed to deserialize record", key, err)
	}

	return record, nil
}

func (s *Store) ListOwnerIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.StorageError("failed to list store directory", "", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	return ids, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Health() error {
	if _, err := os.Stat(s.dir); err != nil {
		return errors.StorageError("store directory unavailable", "", err)
	}
	return nil
}
