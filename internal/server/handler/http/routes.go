package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/middleware"
)

// NewRouter constructs the development backend's HTTP handler.
//
// Routes:
//
//	GET  /auth/login                  → authHandler.Login
//	POST /auth/register               → authHandler.Register
//	GET  /api/home/data               → shopHandler.Home
//	GET  /api/products                → shopHandler.Products
//	GET  /api/products/{id}           → shopHandler.Product
//	GET  /api/user/merchants          → shopHandler.UserMerchants (token)
//	POST /api/orders/place            → shopHandler.PlaceOrder (token)
//	GET  /api/customer/orders         → shopHandler.Orders (token)
//	GET  /api/customer/orders/{id}    → shopHandler.Order (token)
//	GET  /api/customer/profile        → authHandler.Profile (token)
//	PUT  /api/customer/profile        → authHandler.UpdateProfile (token)
//	GET  /metrics                     → Prometheus exposition
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger)
//  2. metrics.Instrument
//  3. AllowContentType("application/json") for requests with a body
func NewRouter(
	authHandler *AuthHandler,
	shopHandler *ShopHandler,
	validator middleware.TokenValidator,
	metrics *middleware.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(metrics.Instrument)

	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/home/data", shopHandler.Home)
			r.Get("/products", shopHandler.Products)
			r.Get("/products/{id}", shopHandler.Product)

			r.Group(func(r chi.Router) {
				r.Use(middleware.TokenAuth(validator))

				r.Get("/user/merchants", shopHandler.UserMerchants)
				r.Post("/orders/place", shopHandler.PlaceOrder)
				r.Get("/customer/orders", shopHandler.Orders)
				r.Get("/customer/orders/{id}", shopHandler.Order)
				r.Get("/customer/profile", authHandler.Profile)
				r.Put("/customer/profile", authHandler.UpdateProfile)
			})
		})
	})

	return r
}
