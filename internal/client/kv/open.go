package kv

import (
	"fmt"
	"os"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and parameterises a store backend.
type Config struct {
	// Driver is one of the Driver* constants. Empty means sqlite.
	Driver string
	// DSN is a file path for file and sqlite, a connection string for
	// postgres and a redis:// URL for redis.
	DSN string
	// Namespace partitions shared backends (postgres, redis).
	Namespace string
	// SealKeyFile, when set, names a file whose contents key an AES-GCM
	// wrapper around the backend.
	SealKeyFile string
}

// Open builds the store described by cfg.
func Open(cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverMemory:
		store = NewMemoryStore()
	case DriverFile:
		store, err = OpenFile(cfg.DSN)
	case "", DriverSQLite:
		store, err = OpenSQLite(cfg.DSN)
	case DriverPostgres:
		db, dbErr := InitPostgres(cfg.DSN)
		if dbErr != nil {
			return nil, storageErr("open", "", dbErr)
		}
		store = NewPostgresStore(db, cfg.Namespace)
	case DriverRedis:
		prefix := ""
		if cfg.Namespace != "" {
			prefix = defaultRedisPrefix + cfg.Namespace + ":"
		}
		store, err = OpenRedis(cfg.DSN, prefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.SealKeyFile == "" {
		return store, nil
	}
	keyMaterial, err := os.ReadFile(cfg.SealKeyFile)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("read seal key: %w", err)
	}
	aead, err := NewAEAD(keyMaterial)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seal key: %w", err)
	}
	return NewSealedStore(store, aead), nil
}
