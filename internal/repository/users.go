// Package repository provides persistence implementations for the
// development backend: PostgreSQL-backed when a database is configured,
// in memory otherwise.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/atinyakov/GophMall/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
)

// PostgresUserRepository stores users in PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts u. A taken username yields ErrUserExists.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u models.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, nickname) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (username) DO NOTHING`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.Nickname,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserExists
	}
	return nil
}

// UserByUsername looks a user up by login name.
func (r *PostgresUserRepository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, nickname FROM users WHERE username = $1`, username))
}

// UserByID looks a user up by id.
func (r *PostgresUserRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, nickname FROM users WHERE id = $1`, id))
}

// UpdateNickname changes the display name of user id.
func (r *PostgresUserRepository) UpdateNickname(ctx context.Context, id, nickname string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET nickname = $2 WHERE id = $1`, id, nickname)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MemoryUserRepository keeps users in a map.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]models.User
	byName map[string]string
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:   make(map[string]models.User),
		byName: make(map[string]string),
	}
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[u.Username]; taken {
		return ErrUserExists
	}
	r.byID[u.ID] = u
	r.byName[u.Username] = u.ID
	return nil
}

func (r *MemoryUserRepository) UserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) UserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) UpdateNickname(_ context.Context, id, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Nickname = nickname
	r.byID[id] = u
	return nil
}
