// Package main starts the GophMall development backend: a fixture catalog,
// seeded accounts, JWT login and order placement over HTTP.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/config"
	"github.com/atinyakov/GophMall/internal/db"
	"github.com/atinyakov/GophMall/internal/logger"
	"github.com/atinyakov/GophMall/internal/middleware"
	"github.com/atinyakov/GophMall/internal/repository"
	"github.com/atinyakov/GophMall/internal/server/handler/http"
	"github.com/atinyakov/GophMall/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	var (
		users  service.UserRepository  = repository.NewMemoryUserRepository()
		orders service.OrderRepository = repository.NewMemoryOrderRepository()
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()

		db.StartPendingOrderCleaner(context.Background(), postgresDB,
			time.Hour,    // interval
			24*time.Hour, // pending orders expire after a day
			zapLogger,
		)
		users = repository.NewPostgresUserRepository(postgresDB)
		orders = repository.NewPostgresOrderRepository(postgresDB)
	}

	authService := service.NewAuthService(users, options.JWTSecret, options.TokenTTL.Duration)
	if err := authService.Seed(context.Background(), service.DefaultSeedUsers); err != nil {
		zapLogger.Fatal("cannot seed users", zap.Error(err))
	}
	shopService := service.NewShopService(repository.DefaultCatalog(), orders)

	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService, Logger: zapLogger},
		&http.ShopHandler{ShopService: shopService, Logger: zapLogger},
		authService,
		middleware.NewMetrics(prometheus.NewRegistry()),
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if options.CertFile == "" || options.KeyFile == "" {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
		return
	}

	tlsConfig, err := serverTLS(options)
	if err != nil {
		zapLogger.Fatal("failed to configure TLS", zap.Error(err))
	}
	server.TLSConfig = tlsConfig

	zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
	if err := server.ListenAndServeTLS("", ""); err != nil {
		zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
	}
}

// serverTLS loads the server key pair and, when a CA is configured,
// verifies client certificates that are presented.
func serverTLS(options *config.Options) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(options.CertFile, options.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server cert/key: %w", err)
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if options.CAFile == "" {
		return cfg, nil
	}

	caCert, err := os.ReadFile(options.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("append CA cert to pool")
	}
	cfg.ClientAuth = tls.VerifyClientCertIfGiven
	cfg.ClientCAs = pool
	return cfg, nil
}
