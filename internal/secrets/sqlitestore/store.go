// Package sqlitestore implements the secret store on SQLite, one row per
// canonical owner id. Upserts use INSERT ... ON CONFLICT DO UPDATE so a
// webhook-triggered refresh and the hourly sweep writing the same owner
// cannot interleave partial records.
package sqlitestore

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

type Config struct {
	DatabasePath string
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.ConfigError("database path is required")
	}
	return nil
}

func (c *Config) GetType() string { return "sqlite" }

type Factory struct{}

func (f *Factory) Create(config secrets.StoreConfig) (secrets.Store, error) {
	sqliteConfig, ok := config.(*Config)
	if !ok {
		return nil, errors.ConfigError("invalid config type for sqlite store")
	}
	return New(sqliteConfig)
}

func (f *Factory) GetType() string { return "sqlite" }

// Store persists token records in a single SQLite table.
type Store struct {
	db *sql.DB
}

func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", config.DatabasePath)
	if err != nil {
		return nil, errors.StorageError("failed to open database", "", err)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.ConnectionError("failed to ping database", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS token_records (
		owner_id      TEXT PRIMARY KEY,
		access_token  TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at    INTEGER NOT NULL,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return errors.StorageError("failed to migrate database", "", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, ownerID string, record secrets.TokenRecord) error {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO token_records (owner_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP`,
		key, record.AccessToken, record.RefreshToken, record.ExpiresAt)
	if err != nil {
		return errors.StorageError("failed to upsert record", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	var record secrets.TokenRecord
	err = s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at FROM token_records WHERE owner_id = ?`,
		key).Scan(&record.AccessToken, &record.RefreshToken, &record.ExpiresAt)
	if err == sql.ErrNoRows {
		return secrets.TokenRecord{}, errors.NotFoundError("token record for owner " + key)
	}
	if err != nil {
		return secrets.TokenRecord{}, errors.StorageError("failed to read record", key, err)
	}

	return record, nil
}

func (s *Store) ListOwnerIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner_id FROM token_records`)
	if err != nil {
		return nil, errors.StorageError("failed to list records", "", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.StorageError("failed to scan record", "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("failed to iterate records", "", err)
	}

	return ids, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Health() error {
	return s.db.Ping()
}
