package persistence

import (
	"context"
	"fmt"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend identifica la implementación de persistencia
type Backend string

const (
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

const connectTimeout = 5 * time.Second

// Config agrupa las opciones de todos los backends
type Config struct {
	Backend        Backend
	FilePath       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	Postgres       PostgresConfig
}

// Factory crea backends de persistencia a partir de la configuración
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// Create instancia el backend configurado y verifica la conexión cuando aplica
func (f *Factory) Create(config Config) (interfaces.Persistence, error) {
	ctx := context.Background()

	switch config.Backend {
	case BackendFile, "":
		logging.Info(ctx, "Using file persistence", logging.Fields{
			"backend": "file",
			"path":    config.FilePath,
		})
		if config.FilePath == "" {
			return nil, fmt.Errorf("file persistence requires a path")
		}
		return NewFileStore(config.FilePath), nil

	case BackendMemory:
		logging.Info(ctx, "Using in-memory persistence", logging.Fields{"backend": "memory"})
		return NewMemoryStore(), nil

	case BackendRedis:
		logging.Info(ctx, "Using Redis persistence", logging.Fields{
			"backend":  "redis",
			"addr":     config.RedisAddr,
			"database": config.RedisDB,
		})
		return f.createRedisStore(config)

	case BackendPostgres:
		logging.Info(ctx, "Using PostgreSQL persistence", logging.Fields{
			"backend":  "postgres",
			"host":     config.Postgres.Host,
			"database": config.Postgres.Database,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return NewPostgresStore(pingCtx, config.Postgres)

	default:
		return nil, fmt.Errorf("unsupported persistence backend: %s", config.Backend)
	}
}

func (f *Factory) createRedisStore(config Config) (interfaces.Persistence, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err)
	}

	logging.Info(context.Background(), "Redis connection established successfully", logging.Fields{
		"addr":     config.RedisAddr,
		"database": config.RedisDB,
	})
	return NewRedisStore(rdb, config.RedisKeyPrefix), nil
}
