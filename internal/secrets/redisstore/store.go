// Package redisstore implements the secret store on Redis, one JSON document
// per canonical owner id. This is the document-database backend: records are
// stored without TTL (refresh tokens stay valid until rotated) and upserts
// are single SET commands, so concurrent writers cannot interleave partial
// records and the last completed write wins.
package redisstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"activity-guard/internal/common/errors"
	"activity-guard/internal/secrets"
)

const keyPrefix = "secrets:owner:"

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.ConfigError("redis address is required")
	}
	return nil
}

func (c *Config) GetType() string { return "redis" }

type Factory struct{}

func (f *Factory) Create(config secrets.StoreConfig) (secrets.Store, error) {
	redisConfig, ok := config.(*Config)
	if !ok {
		return nil, errors.ConfigError("invalid config type for redis store")
	}
	return New(redisConfig)
}

func (f *Factory) GetType() string { return "redis" }

// Store persists token records as JSON values in Redis.
type Store struct {
	rdb *redis.Client
}

func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &Store{rdb: rdb}, nil
}

// NewWithClient wraps an existing client, used by tests running against
// miniredis.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Put(ctx context.Context, ownerID string, record secrets.TokenRecord) error {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.StorageError("failed to serialize record", key, err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return errors.StorageError("failed to write record", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, ownerID string) (secrets.TokenRecord, error) {
	key, err := secrets.CanonicalOwnerID(ownerID)
	if err != nil {
		return secrets.TokenRecord{}, err
	}

	data, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return secrets.TokenRecord{}, errors.NotFoundError("token record for owner " + key)
	}
	if err != nil {
		return secrets.TokenRecord{}, errors.StorageError("failed to read record", key, err)
	}

	var record secrets.TokenRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return secrets.TokenRecord{}, errors.StorageError("failed to deserialize record", key, err)
	}

	return record, nil
}

func (s *Store) ListOwnerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var cursor uint64

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, errors.StorageError("failed to scan records", "", err)
		}

		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, keyPrefix))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return ids, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
