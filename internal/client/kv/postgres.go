package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS client_kv (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value BYTEA NOT NULL,
    PRIMARY KEY (namespace, key)
);
`

// PostgresStore keeps keys in a shared PostgreSQL table, partitioned by
// namespace so that several devices can share one database.
type PostgresStore struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Namespace scopes every key of this store.
	Namespace string
}

// InitPostgres connects to dsn, verifies the connection and creates the
// key-value table if it does not exist yet.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// NewPostgresStore creates a PostgresStore over an initialised database.
func NewPostgresStore(db *sql.DB, namespace string) *PostgresStore {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStore{DB: db, Namespace: namespace}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM client_kv WHERE namespace = $1 AND key = $2`,
		s.Namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO client_kv (namespace, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value
	`, s.Namespace, key, value)
	if err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM client_kv WHERE namespace = $1 AND key = $2`,
		s.Namespace, key,
	)
	if err != nil {
		return storageErr("remove", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }
