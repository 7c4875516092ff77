package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecordStore implements RecordStore using Redis string values
// holding the JSON-encoded record.
type RedisRecordStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type RedisConfig struct {
	Prefix string
	// TTL is an optional retention period. Zero keeps records forever.
	TTL time.Duration
}

// NewRedisRecordStore creates a Redis-backed record store.
func NewRedisRecordStore(client redis.UniversalClient, config RedisConfig) *RedisRecordStore {
	return &RedisRecordStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// key builds the final Redis key: <prefix>:record:<id>.
func (s *RedisRecordStore) key(id string) string {
	if s.prefix == "" {
		return "record:" + id
	}
	return s.prefix + ":record:" + id
}

// Get retrieves a record. redis.Nil is the only miss; every other failure,
// including an undecodable value, is returned as an error.
func (s *RedisRecordStore) Get(ctx context.Context, id string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, fmt.Errorf("context error: %w", err)
	}

	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("redis decode record %s: %w", id, err)
	}
	return rec, true, nil
}

// Put stores rec, overwriting any previous value.
func (s *RedisRecordStore) Put(ctx context.Context, rec Record) error {
	raw, err := s.encode(ctx, rec)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(rec.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// PutIfAbsent stores rec with SETNX.
func (s *RedisRecordStore) PutIfAbsent(ctx context.Context, rec Record) error {
	raw, err := s.encode(ctx, rec)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.key(rec.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return ErrRecordExists
	}
	return nil
}

func (s *RedisRecordStore) encode(ctx context.Context, rec Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("redis encode record %s: %w", rec.ID, err)
	}
	return raw, nil
}

// Ping checks if Redis connection is healthy.
func (s *RedisRecordStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return s.client.Ping(ctx).Err()
}
