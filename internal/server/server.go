// Package server assembles the HTTP API: routes, middleware chain, and the
// WebSocket hub attachment.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/server/handler"
	"github.com/stylelend/rentbond/internal/server/middleware"
	"github.com/stylelend/rentbond/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication

	// RateLimiter applies per-client limits when non-nil.
	RateLimiter     domain.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health  *handler.HealthHandler
	Bonds   *handler.BondHandler
	Risk    *handler.RiskHandler
	Pricing *handler.PricingHandler
	Rewards *handler.RewardsHandler
	Archive *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain. The bond
// and risk routes are mounted at the root so existing clients keep working.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required via the chain below; the key check
	// applies uniformly, operators probe with the key).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Bond ledger.
	mux.HandleFunc("POST /bonds/quote", handlers.Bonds.CreateQuote)
	mux.HandleFunc("POST /bonds/purchase", handlers.Bonds.Purchase)
	mux.HandleFunc("POST /bonds/redeem", handlers.Bonds.Redeem)
	mux.HandleFunc("GET /bonds/{bond_id}", handlers.Bonds.GetBond)

	// Rental audit log and exports.
	mux.HandleFunc("GET /history", handlers.Bonds.History)
	if handlers.Archive != nil {
		mux.HandleFunc("POST /history/archive", handlers.Archive.Export)
		mux.HandleFunc("GET /history/archives", handlers.Archive.List)
	}

	// Risk engine.
	mux.HandleFunc("POST /risk/nft/register", handlers.Risk.RegisterItem)
	mux.HandleFunc("POST /risk/nft/event", handlers.Risk.ItemEvent)
	mux.HandleFunc("GET /risk/score/{token_id}", handlers.Risk.ItemScore)
	mux.HandleFunc("POST /risk/user/event", handlers.Risk.UserEvent)
	mux.HandleFunc("GET /risk/user/score/{user_id}", handlers.Risk.UserScore)
	mux.HandleFunc("GET /risk/fdc/status", handlers.Risk.GateStatus)

	// Item price quoting.
	mux.HandleFunc("POST /pricing/quote", handlers.Pricing.Quote)

	// Rewards ledger surface.
	mux.HandleFunc("GET /rewards/balance/{user}", handlers.Rewards.Balance)
	mux.HandleFunc("POST /rewards/issue", handlers.Rewards.Issue)
	mux.HandleFunc("POST /rewards/spend", handlers.Rewards.Spend)

	// WebSocket event stream.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Middleware chain, innermost first: auth, rate limit, logging, request
	// id, CORS.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Handler returns the fully assembled handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests up to
// the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
