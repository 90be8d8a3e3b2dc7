package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atinyakov/GophMall/internal/models"
	"github.com/atinyakov/GophMall/internal/repository"
)

// OrderRepository defines the order persistence the shop needs.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o models.Order) error
	OrdersByUser(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error)
	OrderByID(ctx context.Context, userID, id string) (*models.Order, error)
}

// ShopService serves the catalog and takes orders.
type ShopService struct {
	catalog *repository.Catalog
	orders  OrderRepository
	now     func() time.Time
}

// NewShopService constructs a ShopService.
func NewShopService(catalog *repository.Catalog, orders OrderRepository) *ShopService {
	return &ShopService{catalog: catalog, orders: orders, now: time.Now}
}

// HomeData is the payload of the home page.
type HomeData struct {
	Banners    []string         `json:"banners"`
	Categories []string         `json:"categories"`
	Featured   []models.Product `json:"featured"`
}

// Home assembles the home page: categories and the first products in stock.
func (s *ShopService) Home(ctx context.Context) HomeData {
	all, _ := s.catalog.Products(ctx, repository.ProductFilter{}, 1, 0)
	featured := []models.Product{}
	for _, p := range all {
		if p.Stock > 0 && len(featured) < 4 {
			featured = append(featured, p)
		}
	}
	return HomeData{
		Banners:    []string{"/static/banner-spring.png"},
		Categories: s.catalog.Categories(ctx),
		Featured:   featured,
	}
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	List     []models.Product `json:"list"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// DefaultPageSize applies when the caller gives none.
const DefaultPageSize = 10

// Products lists the catalog.
func (s *ShopService) Products(ctx context.Context, f repository.ProductFilter, page, pageSize int) ProductPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	list, total := s.catalog.Products(ctx, f, page, pageSize)
	return ProductPage{List: list, Total: total, Page: page, PageSize: pageSize}
}

// Product returns one catalog entry.
func (s *ShopService) Product(ctx context.Context, id string) (*models.Product, error) {
	return s.catalog.Product(ctx, id)
}

// MerchantsOf lists the merchants user id operates.
func (s *ShopService) MerchantsOf(ctx context.Context, userID string) []models.Merchant {
	return s.catalog.MerchantsOwnedBy(ctx, userID)
}

// OrderItem is one requested line of an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is what a customer submits at checkout.
type PlaceOrderRequest struct {
	AddressID string      `json:"addressId"`
	Items     []OrderItem `json:"items"`
}

// PlaceOrder prices the requested lines against the catalog and records a
// pending order.
func (s *ShopService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	if req.AddressID == "" {
		return nil, invalid("addressId is required")
	}
	if len(req.Items) == 0 {
		return nil, invalid("order has no items")
	}

	order := models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		AddressID: req.AddressID,
		Total:     decimal.Zero,
		Status:    models.OrderPending,
		CreatedAt: s.now().UTC(),
	}
	for _, it := range req.Items {
		p, err := s.catalog.Product(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("unknown product %q", it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if it.Quantity < 1 {
			return nil, invalid("quantity of %q must be at least 1", it.ProductID)
		}
		if it.Quantity > p.Stock {
			return nil, invalid("only %d of %q in stock", p.Stock, p.Name)
		}
		line := models.OrderLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: it.Quantity}
		order.Lines = append(order.Lines, line)
		order.Total = order.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders lists a customer's orders, optionally filtered by status.
func (s *ShopService) Orders(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error) {
	orders, err := s.orders.OrdersByUser(ctx, userID, statuses)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// Order returns one of a customer's orders.
func (s *ShopService) Order(ctx context.Context, userID, id string) (*models.Order, error) {
	return s.orders.OrderByID(ctx, userID, id)
}
