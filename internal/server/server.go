package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/config"
	"github.com/hongminglow/minigames-be/internal/gameplay"
	"github.com/hongminglow/minigames-be/internal/http/handlers"
	"github.com/hongminglow/minigames-be/internal/metrics"
	"github.com/hongminglow/minigames-be/internal/middleware"
	"github.com/hongminglow/minigames-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// Deps are the collaborators New wires into the router.
type Deps struct {
	Store    storage.Store
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	collector := metrics.NewCollector(registry)
	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AuthRatePerMinute), logger)

	return &Server{
		inner: &http.Server{
			Addr:              cfg.HTTPAddress(),
			Handler:           NewRouter(cfg, deps.Store, logger, collector, registry, limiter),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
	}
}

// NewRouter builds the HTTP routes. Session routes accept guests; outcome
// routes require a signed-in user.
func NewRouter(
	cfg config.Config,
	store storage.Store,
	logger *slog.Logger,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
	limiter *middleware.RateLimiter,
) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	gate := auth.NewGate(tokens, store)
	games := gameplay.NewService(store, collector, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger, collector))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		handlers.NewAuthHandler(store, tokens, collector, logger).Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalUser(gate, logger))
		handlers.NewSessionHandler().Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(gate, logger, collector))
		handlers.NewOutcomeHandler(games, logger).Register(r)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
