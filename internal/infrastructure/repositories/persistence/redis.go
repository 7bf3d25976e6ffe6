package persistence

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/metrics"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "snapshot"

// redisClient es el subconjunto de *redis.Client que usa RedisStore
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore guarda el snapshot JSON bajo la clave <prefix>snapshot, sin expiración
type RedisStore struct {
	client redisClient
	key    string
}

var _ interfaces.Persistence = (*RedisStore)(nil)

// NewRedisStore crea el store sobre un cliente ya conectado
func NewRedisStore(client redisClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, key: keyPrefix + snapshotKey}
}

func (r *RedisStore) Load(ctx context.Context) (*entities.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordPersistenceOperation(string(BackendRedis), "load", nil)
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		metrics.RecordPersistenceOperation(string(BackendRedis), "load", err)
		return nil, fmt.Errorf("failed to read %s from redis: %w", r.key, err)
	}

	snapshot, err := decodeSnapshot(data)
	metrics.RecordPersistenceOperation(string(BackendRedis), "load", err)
	return snapshot, err
}

func (r *RedisStore) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	data, err := encodeSnapshot(snapshot)
	if err == nil {
		if setErr := r.client.Set(ctx, r.key, data, 0).Err(); setErr != nil {
			err = fmt.Errorf("failed to write %s to redis: %w", r.key, setErr)
		}
	}
	metrics.RecordPersistenceOperation(string(BackendRedis), "save", err)
	return err
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
