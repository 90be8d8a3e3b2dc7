package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GophMall/internal/models"
)

func setupMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresUserRepository_CreateUser(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO users (id, username, password_hash, role, nickname) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (username) DO NOTHING`)
	u := models.User{ID: "u1", Username: "amy", PasswordHash: []byte("hash"), Role: models.RoleCustomer}

	t.Run("inserted", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec(insert).
			WithArgs("u1", "amy", []byte("hash"), models.RoleCustomer, "").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgresUserRepository(db).CreateUser(context.Background(), u))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("username taken", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewPostgresUserRepository(db).CreateUser(context.Background(), u)
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("db error", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec(insert).WillReturnError(errors.New("insert failed"))

		err := NewPostgresUserRepository(db).CreateUser(context.Background(), u)
		assert.EqualError(t, err, "insert failed")
	})
}

func TestPostgresUserRepository_Lookup(t *testing.T) {
	cols := []string{"id", "username", "password_hash", "role", "nickname"}

	t.Run("by username", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, password_hash, role, nickname FROM users WHERE username = $1`)).
			WithArgs("amy").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "amy", []byte("h"), "merchant", "Amy"))

		u, err := NewPostgresUserRepository(db).UserByUsername(context.Background(), "amy")
		require.NoError(t, err)
		assert.Equal(t, &models.User{ID: "u1", Username: "amy", PasswordHash: []byte("h"), Role: "merchant", Nickname: "Amy"}, u)
	})

	t.Run("by id missing", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, password_hash, role, nickname FROM users WHERE id = $1`)).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := NewPostgresUserRepository(db).UserByID(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update nickname", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET nickname = $2 WHERE id = $1`)).
			WithArgs("u1", "Ames").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET nickname = $2 WHERE id = $1`)).
			WithArgs("u9", "x").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgresUserRepository(db)
		require.NoError(t, repo.UpdateNickname(context.Background(), "u1", "Ames"))
		assert.ErrorIs(t, repo.UpdateNickname(context.Background(), "u9", "x"), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresOrderRepository(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := models.Order{
		ID: "o1", UserID: "u1", AddressID: "a1",
		Lines:  []models.OrderLine{{ProductID: "p1", Name: "Tea", Price: decimal.RequireFromString("2.5"), Quantity: 2}},
		Total:  decimal.RequireFromString("5"),
		Status: models.OrderPending, CreatedAt: created,
	}
	linesJSON := []byte(`[{"productId":"p1","name":"Tea","price":"2.5","quantity":2}]`)
	cols := []string{"id", "user_id", "address_id", "lines", "total", "status", "created_at"}

	t.Run("create", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec("INSERT INTO orders").
			WithArgs("o1", "u1", "a1", linesJSON, "5", "pending", created).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgresOrderRepository(db).CreateOrder(context.Background(), order))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create error", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("boom"))
		err := NewPostgresOrderRepository(db).CreateOrder(context.Background(), order)
		assert.ErrorContains(t, err, "CreateOrder")
	})

	t.Run("list with status filter", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE user_id = $1 AND status = ANY($2) ORDER BY created_at DESC`)).
			WithArgs("u1", pq.Array([]string{"pending"})).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("o1", "u1", "a1", linesJSON, "5.00", "pending", created))

		orders, err := NewPostgresOrderRepository(db).OrdersByUser(context.Background(), "u1", []models.OrderStatus{models.OrderPending})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.True(t, orders[0].Total.Equal(order.Total))
		assert.Equal(t, 2, orders[0].Lines[0].Quantity)
		assert.Equal(t, models.OrderPending, orders[0].Status)
	})

	t.Run("list error", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery("FROM orders").WithArgs("u1").WillReturnError(errors.New("down"))
		_, err := NewPostgresOrderRepository(db).OrdersByUser(context.Background(), "u1", nil)
		assert.ErrorContains(t, err, "OrdersByUser")
	})

	t.Run("by id missing", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery("FROM orders").WithArgs("u1", "o9").WillReturnRows(sqlmock.NewRows(cols))
		_, err := NewPostgresOrderRepository(db).OrderByID(context.Background(), "u1", "o9")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("by id corrupt total", func(t *testing.T) {
		db, mock := setupMock(t)
		mock.ExpectQuery("FROM orders").WithArgs("u1", "o1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("o1", "u1", "a1", linesJSON, "lots", "pending", created))
		_, err := NewPostgresOrderRepository(db).OrderByID(context.Background(), "u1", "o1")
		assert.ErrorContains(t, err, "decode order total")
	})
}

func TestMemoryRepositories(t *testing.T) {
	ctx := context.Background()

	users := NewMemoryUserRepository()
	require.NoError(t, users.CreateUser(ctx, models.User{ID: "u1", Username: "amy"}))
	assert.ErrorIs(t, users.CreateUser(ctx, models.User{ID: "u2", Username: "amy"}), ErrUserExists)
	require.NoError(t, users.UpdateNickname(ctx, "u1", "Amy"))
	u, err := users.UserByUsername(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "Amy", u.Nickname)
	_, err = users.UserByID(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, users.UpdateNickname(ctx, "u2", "x"), ErrNotFound)

	orders := NewMemoryOrderRepository()
	now := time.Now()
	require.NoError(t, orders.CreateOrder(ctx, models.Order{ID: "old", UserID: "u1", Status: models.OrderPaid, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, orders.CreateOrder(ctx, models.Order{ID: "new", UserID: "u1", Status: models.OrderPending, CreatedAt: now}))
	require.NoError(t, orders.CreateOrder(ctx, models.Order{ID: "other", UserID: "u2", CreatedAt: now}))

	list, err := orders.OrdersByUser(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	list, err = orders.OrdersByUser(ctx, "u1", []models.OrderStatus{models.OrderPaid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "old", list[0].ID)

	_, err = orders.OrderByID(ctx, "u1", "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	c := DefaultCatalog()

	all, total := c.Products(ctx, ProductFilter{}, 1, 0)
	assert.Equal(t, 5, total)
	assert.Len(t, all, 5)

	page, total := c.Products(ctx, ProductFilter{}, 2, 2)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "p1003", page[0].ID)

	beyond, _ := c.Products(ctx, ProductFilter{}, 9, 2)
	assert.Empty(t, beyond)

	tea, total := c.Products(ctx, ProductFilter{Keyword: "TEA"}, 1, 10)
	assert.Equal(t, 3, total)
	assert.Len(t, tea, 3)

	books, _ := c.Products(ctx, ProductFilter{Category: "books"}, 1, 10)
	require.Len(t, books, 1)

	p, err := c.Product(ctx, "p1002")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	_, err = c.Product(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, c.MerchantsOwnedBy(ctx, "u-merchant"), 2)
	assert.Empty(t, c.MerchantsOwnedBy(ctx, "u-customer"))
	assert.Equal(t, []string{"books", "homeware", "stationery", "tea"}, c.Categories(ctx))
}
