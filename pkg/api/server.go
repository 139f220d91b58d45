// Package api serves the quote engine, token table, transaction history and
// preferences over a small local JSON API for browser front-ends.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"dex-swap/pkg/history"
	"dex-swap/pkg/logging"
	"dex-swap/pkg/market"
	"dex-swap/pkg/quote"
	"dex-swap/pkg/settings"
	"dex-swap/pkg/swap"
	"dex-swap/pkg/wallet"
)

var log = logging.New("api")

// HistorySource fetches an account's transactions
type HistorySource interface {
	Transactions(ctx context.Context, address string) ([]history.Transaction, error)
}

// WalletState exposes the read-only wallet snapshot
type WalletState interface {
	Snapshot() wallet.Snapshot
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Address         string
	AllowedOrigins  []string
	RatePerMinute   int
	DefaultSlippage float64
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         "127.0.0.1:8787",
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		RatePerMinute:   120,
		DefaultSlippage: 0.5,
	}
}

// Deps are the components the handlers read from. Activity may be nil.
type Deps struct {
	Registry   *market.Registry
	Calculator *quote.Calculator
	History    HistorySource
	Settings   *settings.Store
	Wallet     WalletState
	Activity   *swap.Storage
}

// Server wraps the HTTP server and provides lifecycle management
type Server struct {
	config     ServerConfig
	deps       Deps
	metrics    *Metrics
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates an API server with the given configuration
func NewServer(config ServerConfig, deps Deps) *Server {
	s := &Server{
		config:  config,
		deps:    deps,
		metrics: NewMetrics(),
	}

	mux := chi.NewMux()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(zerologMiddleware(s.metrics))
	mux.Use(zerologRecoverer)

	// Rate limiting
	if config.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(config.RatePerMinute, time.Minute))
	}

	mux.Handle("/metrics", s.metrics.Handler())
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "dex-swap"})
	})

	mux.Route("/v1", func(r chi.Router) {
		r.Use(noCache)
		r.Get("/quote", s.handleQuote)
		r.Get("/tokens", s.handleTokens)
		r.Get("/history/{address}", s.handleHistory)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/wallet", s.handleWallet)
		if deps.Activity != nil {
			r.Get("/activity", s.handleActivity)
		}
	})

	s.handler = newCORSHandler(config.AllowedOrigins, mux)
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start serves requests until Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Address).Msg("dex-swap API starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
