// Package models defines the core data structures of the development
// backend: users, catalog entries and orders.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role values carried by users and tokens.
const (
	RoleCustomer  = "customer"
	RoleMerchant  = "merchant"
	RoleMallAdmin = "mall_admin"
	RoleAdmin     = "admin"
)

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// Role decides which workspace the client opens.
	Role string `json:"role"`
	// Nickname is the display name, editable through the profile endpoint.
	Nickname string `json:"nickname,omitempty"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
}

// Product is a catalog entry.
type Product struct {
	ID         string          `json:"productId"`
	MerchantID string          `json:"merchantId"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Category   string          `json:"category,omitempty"`
}

// Merchant is a shop operated by a user.
type Merchant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	// OrderPending orders await payment and expire after a while.
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	OrderShipped OrderStatus = "shipped"
)

// OrderLine is one product in an order.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AddressID string          `json:"addressId"`
	Lines     []OrderLine     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
