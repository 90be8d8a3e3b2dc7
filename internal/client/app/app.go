// Package app assembles the client: local store, API client and the
// session, cart and merchant containers.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/api"
	"github.com/atinyakov/GophMall/internal/client/cart"
	"github.com/atinyakov/GophMall/internal/client/kv"
	"github.com/atinyakov/GophMall/internal/client/merchant"
	"github.com/atinyakov/GophMall/internal/client/session"
	"github.com/atinyakov/GophMall/internal/config"
)

// UI receives cart notices and navigation requests.
type UI interface {
	cart.Notifier
	session.Navigator
}

// Options configures New.
type Options struct {
	BaseURL    string
	Convention string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	CAFile     string
	CertFile   string
	KeyFile    string
	Store      kv.Config
	// StoreOverride, when set, is used instead of opening Store.
	StoreOverride kv.Store
}

// OptionsFromConfig maps parsed configuration onto Options.
func OptionsFromConfig(o *config.Options) Options {
	return Options{
		BaseURL:    o.BaseURL,
		Convention: o.Convention,
		Timeout:    o.Timeout.Duration,
		RateLimit:  o.RateLimit,
		RateBurst:  o.RateBurst,
		CAFile:     o.CAFile,
		CertFile:   o.CertFile,
		KeyFile:    o.KeyFile,
		Store: kv.Config{
			Driver:      o.StoreDriver,
			DSN:         o.StoreDSN,
			Namespace:   o.StoreNamespace,
			SealKeyFile: o.SealKeyFile,
		},
	}
}

// App owns the client's state containers.
type App struct {
	API      *api.Client
	Session  *session.Session
	Cart     *cart.Cart
	Merchant *merchant.Context

	convention api.Convention
	store      kv.Store
	logger     *zap.Logger
}

// New builds the client, restores persisted state and tries to resume the
// previous session. The returned App must be closed.
func New(ctx context.Context, opts Options, logger *zap.Logger, ui UI) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	convention, err := api.ParseConvention(cmp.Or(opts.Convention, api.ConventionCode))
	if err != nil {
		return nil, err
	}

	clientOpts := []api.Option{api.WithLogger(logger.Named("api"))}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, api.WithTimeout(opts.Timeout))
	}
	if opts.RateLimit > 0 {
		clientOpts = append(clientOpts, api.WithRateLimit(opts.RateLimit, opts.RateBurst))
	}
	if opts.CAFile != "" || opts.CertFile != "" {
		transport, err := api.NewTLSTransport(opts.CAFile, opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, api.WithTransport(transport))
	}
	client, err := api.NewClient(opts.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	store := opts.StoreOverride
	if store == nil {
		store, err = kv.Open(opts.Store)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	a := &App{
		API:   client,
		store: store,
		Session: session.New(client, store,
			session.WithConvention(convention),
			session.WithNavigator(ui),
			session.WithLogger(logger.Named("session"))),
		Cart: cart.New(store,
			cart.WithNotifier(ui),
			cart.WithLogger(logger.Named("cart"))),
		Merchant: merchant.New(client, store,
			merchant.WithConvention(convention),
			merchant.WithLogger(logger.Named("merchant"))),
		convention: convention,
		logger:     logger,
	}
	client.SetTokenSource(a.Session)

	if err := a.restore(ctx); err != nil {
		if opts.StoreOverride == nil {
			_ = store.Close()
		}
		return nil, err
	}
	return a, nil
}

func (a *App) restore(ctx context.Context) error {
	if err := a.Cart.Hydrate(ctx); err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	if err := a.Merchant.Hydrate(ctx); err != nil {
		return fmt.Errorf("restore merchant: %w", err)
	}
	role, err := a.Session.TryAutoLogin(ctx)
	if err != nil {
		return err
	}
	if role != "" {
		a.logger.Info("resumed session", zap.String("role", role))
	}
	return nil
}

// Logout ends the session and forgets the merchant context. The cart is
// kept.
func (a *App) Logout(ctx context.Context) error {
	return errors.Join(
		a.Merchant.Clear(ctx),
		a.Session.Logout(ctx),
	)
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}
