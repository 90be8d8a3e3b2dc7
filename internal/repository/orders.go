package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/atinyakov/GophMall/internal/models"
)

// PostgresOrderRepository stores orders in PostgreSQL.
type PostgresOrderRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresOrderRepository creates a repository over db.
func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

// CreateOrder inserts o.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, o models.Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encode order lines: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, address_id, lines, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.UserID, o.AddressID, lines, o.Total.String(), string(o.Status), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateOrder: %w", err)
	}
	return nil
}

// OrdersByUser lists the orders of userID, newest first. A non-empty
// statuses restricts the result to those states.
func (r *PostgresOrderRepository) OrdersByUser(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error) {
	query := `SELECT id, user_id, address_id, lines, total, status, created_at FROM orders WHERE user_id = $1`
	args := []any{userID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("OrdersByUser: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OrdersByUser: %w", err)
	}
	return orders, nil
}

// OrderByID fetches one order of userID.
func (r *PostgresOrderRepository) OrderByID(ctx context.Context, userID, id string) (*models.Order, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, address_id, lines, total, status, created_at FROM orders
		WHERE user_id = $1 AND id = $2
	`, userID, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*models.Order, error) {
	var (
		o      models.Order
		lines  []byte
		total  string
		status string
	)
	if err := s.Scan(&o.ID, &o.UserID, &o.AddressID, &lines, &total, &status, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("decode order lines: %w", err)
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("decode order total: %w", err)
	}
	o.Total = t
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// MemoryOrderRepository keeps orders in memory.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

// NewMemoryOrderRepository returns an empty repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]models.Order)}
}

func (r *MemoryOrderRepository) CreateOrder(_ context.Context, o models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *MemoryOrderRepository) OrdersByUser(_ context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []models.Order
	for _, o := range r.orders {
		if o.UserID != userID || (len(want) > 0 && !want[o.Status]) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryOrderRepository) OrderByID(_ context.Context, userID, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok || o.UserID != userID {
		return nil, ErrNotFound
	}
	return &o, nil
}
