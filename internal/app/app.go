// Package app wires configuration, stores, services, and the HTTP server
// into a runnable application.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stylelend/rentbond/internal/attest"
	s3blob "github.com/stylelend/rentbond/internal/blob/s3"
	"github.com/stylelend/rentbond/internal/config"
	"github.com/stylelend/rentbond/internal/notify"
	"github.com/stylelend/rentbond/internal/server"
	"github.com/stylelend/rentbond/internal/server/handler"
	"github.com/stylelend/rentbond/internal/server/ws"
	"github.com/stylelend/rentbond/internal/service"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const shutdownTimeout = 15 * time.Second

// App owns the wired dependencies and runs the server until the context is
// cancelled.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	deps    *Dependencies
	cleanup func()
}

// New wires all dependencies for the given configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	deps, cleanup, err := Wire(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		deps:    deps,
		cleanup: cleanup,
	}, nil
}

// Run builds the service and HTTP layers on top of the wired dependencies and
// blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	deps := a.deps

	gate := attest.NewGate(a.cfg.Attestation.Enforce, a.logger)
	if a.cfg.Attestation.ConnectorSecret != "" {
		gate.UseConnectorSecret(a.cfg.Attestation.ConnectorSecret)
	}

	quoteSvc := service.NewQuoteService(deps.QuoteStore, a.logger)
	bondSvc := service.NewBondService(deps.BondStore, quoteSvc, deps.HistoryStore, deps.Ledger, deps.SignalBus, a.logger)
	riskSvc := service.NewRiskService(deps.ItemStore, deps.UserStore, gate, deps.SignalBus, a.logger)
	priceSvc := service.NewPriceService(deps.Feed, deps.ItemStore, a.logger)

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(Version),
		Bonds:   handler.NewBondHandler(quoteSvc, bondSvc, a.logger),
		Risk:    handler.NewRiskHandler(riskSvc, a.logger),
		Pricing: handler.NewPricingHandler(priceSvc, a.logger),
		Rewards: handler.NewRewardsHandler(deps.Ledger, a.logger),
	}
	if deps.Archiver != nil {
		handlers.Archive = handler.NewArchiveHandler(deps.Archiver, deps.BlobReader, s3blob.ArchivePrefix, a.logger)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger)

	srvCfg := server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}
	if deps.RateLimiter != nil && a.cfg.Server.RateLimit > 0 {
		srvCfg.RateLimiter = deps.RateLimiter
		srvCfg.RateLimit = a.cfg.Server.RateLimit
		srvCfg.RateLimitWindow = a.cfg.Server.Window()
	}
	srv := server.NewServer(srvCfg, handlers, hub, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	if deps.Notifier != nil {
		listener := notify.NewListener(deps.SignalBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases all wired resources in reverse order of construction.
func (a *App) Close() {
	a.cleanup()
}
