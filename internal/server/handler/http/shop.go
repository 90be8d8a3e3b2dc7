package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/middleware"
	"github.com/atinyakov/GophMall/internal/models"
	"github.com/atinyakov/GophMall/internal/repository"
	"github.com/atinyakov/GophMall/internal/service"
)

// ShopService defines the catalog and order operations required by
// ShopHandler.
type ShopService interface {
	Home(ctx context.Context) service.HomeData
	Products(ctx context.Context, f repository.ProductFilter, page, pageSize int) service.ProductPage
	Product(ctx context.Context, id string) (*models.Product, error)
	MerchantsOf(ctx context.Context, userID string) []models.Merchant
	PlaceOrder(ctx context.Context, userID string, req service.PlaceOrderRequest) (*models.Order, error)
	Orders(ctx context.Context, userID string, statuses []models.OrderStatus) ([]models.Order, error)
	Order(ctx context.Context, userID, id string) (*models.Order, error)
}

// ShopHandler serves the catalog, merchants and orders.
type ShopHandler struct {
	ShopService ShopService
	Logger      *zap.Logger
}

// Home handles GET /api/home/data.
func (h *ShopHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.ShopService.Home(r.Context()))
}

// Products handles GET /api/products?keyword=&categoryId=&page=&pageSize=.
// Unparsable paging values fall back to the defaults.
func (h *ShopHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	f := repository.ProductFilter{Keyword: q.Get("keyword"), Category: q.Get("categoryId")}
	writeData(w, h.ShopService.Products(r.Context(), f, page, pageSize))
}

// Product handles GET /api/products/{id}.
func (h *ShopHandler) Product(w http.ResponseWriter, r *http.Request) {
	p, err := h.ShopService.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, p)
}

// UserMerchants handles GET /api/user/merchants. The list is returned as
// a bare array under data.
func (h *ShopHandler) UserMerchants(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.ShopService.MerchantsOf(r.Context(), middleware.GetUserIDFromContext(r.Context())))
}

// PlaceOrder handles POST /api/orders/place.
func (h *ShopHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	order, err := h.ShopService.PlaceOrder(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, order)
}

// Orders handles GET /api/customer/orders?status=pending,paid.
func (h *ShopHandler) Orders(w http.ResponseWriter, r *http.Request) {
	var statuses []models.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				statuses = append(statuses, models.OrderStatus(part))
			}
		}
	}

	orders, err := h.ShopService.Orders(r.Context(), middleware.GetUserIDFromContext(r.Context()), statuses)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, orders)
}

// Order handles GET /api/customer/orders/{id}.
func (h *ShopHandler) Order(w http.ResponseWriter, r *http.Request) {
	order, err := h.ShopService.Order(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeData(w, order)
}
