package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// redisDocument is the value stored under each collection key
type redisDocument struct {
	Version int64             `json:"version"`
	Records []json.RawMessage `json:"records"`
}

// RedisStore keeps each collection as one JSON string key. Saves run in a
// WATCH transaction so a concurrent write aborts the later one.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store; every key is prefixed with prefix
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Load implements CollectionStore
func (s *RedisStore) Load(ctx context.Context, key string) (*Collection, error) {
	doc, err := s.read(ctx, s.client, key)
	if err != nil {
		return nil, err
	}
	return &Collection{Records: doc.Records, Version: doc.Version}, nil
}

// Save implements CollectionStore
func (s *RedisStore) Save(ctx context.Context, key string, records []json.RawMessage, expectedVersion int64) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	redisKey := s.prefix + key

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		data, err := json.Marshal(redisDocument{Version: expectedVersion + 1, Records: records})
		if err != nil {
			return fmt.Errorf("encode collection %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, data, 0)
			return nil
		})
		return err
	}, redisKey)

	if errors.Is(err, redis.TxFailedErr) {
		return shared.ErrConcurrencyConflict
	}
	return err
}

func (s *RedisStore) read(ctx context.Context, c redisGetter, key string) (*redisDocument, error) {
	raw, err := c.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &redisDocument{Records: []json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", key, err)
	}

	var doc redisDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", key, err)
	}
	if doc.Records == nil {
		doc.Records = []json.RawMessage{}
	}
	return &doc, nil
}

var _ CollectionStore = (*RedisStore)(nil)

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}
