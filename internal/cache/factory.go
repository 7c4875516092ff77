package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Backend string
	Prefix  string
	TTL     time.Duration
	Table   string
}

// Clients carries the backend clients; only the one matching Config.Backend
// needs to be set.
type Clients struct {
	Redis    redis.UniversalClient
	DynamoDB DynamoDBAPI
}

func NewRecordStore(cfg Config, clients Clients) (RecordStore, error) {
	switch cfg.Backend {
	case BackendRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("cache backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisRecordStore(clients.Redis, RedisConfig{
			Prefix: cfg.Prefix,
			TTL:    cfg.TTL,
		}), nil
	case BackendDynamoDB:
		if clients.DynamoDB == nil {
			return nil, fmt.Errorf("cache backend %q requires a dynamodb client", cfg.Backend)
		}
		if cfg.Table == "" {
			return nil, fmt.Errorf("cache backend %q requires a table name", cfg.Backend)
		}
		return NewDynamoDBRecordStore(clients.DynamoDB, cfg.Table), nil
	case BackendMemory, "":
		return NewMemoryRecordStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
