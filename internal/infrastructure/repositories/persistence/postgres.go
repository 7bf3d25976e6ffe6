package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/metrics"

	_ "github.com/lib/pq"
)

const (
	stateRowID = "default"

	createStateTable = `CREATE TABLE IF NOT EXISTS repricer_state (
		id         TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	selectState = `SELECT payload FROM repricer_state WHERE id = $1`

	upsertState = `INSERT INTO repricer_state (id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// PostgresConfig son los parámetros de conexión de lib/pq
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN arma el connection string key=value de lib/pq
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Database, sslMode)
}

// PostgresStore guarda el snapshot en una sola fila JSONB de repricer_state
type PostgresStore struct {
	db *sql.DB
}

var _ interfaces.Persistence = (*PostgresStore)(nil)

// NewPostgresStore abre la conexión y crea la tabla si no existe
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := NewPostgresStoreWithDB(db)
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create repricer_state table: %w", err)
	}

	return store, nil
}

// NewPostgresStoreWithDB usa un *sql.DB ya abierto; no crea la tabla
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context) (*entities.Snapshot, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, selectState, stateRowID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordPersistenceOperation(string(BackendPostgres), "load", nil)
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		metrics.RecordPersistenceOperation(string(BackendPostgres), "load", err)
		return nil, fmt.Errorf("failed to query repricer_state: %w", err)
	}

	snapshot, err := decodeSnapshot(payload)
	metrics.RecordPersistenceOperation(string(BackendPostgres), "load", err)
	return snapshot, err
}

func (p *PostgresStore) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	payload, err := encodeSnapshot(snapshot)
	if err == nil {
		if _, execErr := p.db.ExecContext(ctx, upsertState, stateRowID, payload); execErr != nil {
			err = fmt.Errorf("failed to upsert repricer_state: %w", execErr)
		}
	}
	metrics.RecordPersistenceOperation(string(BackendPostgres), "save", err)
	return err
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
