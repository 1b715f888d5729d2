package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-planner/internal/database"
	"github.com/aristath/portfolio-planner/internal/modules/allocation"
	"github.com/aristath/portfolio-planner/internal/modules/portfolio"
	"github.com/aristath/portfolio-planner/internal/modules/rebalancing"
)

// Config holds server configuration
type Config struct {
	Port        int
	DevMode     bool
	Log         zerolog.Logger
	DB          *database.DB
	Allocation  *allocation.Handler
	Rebalancing *rebalancing.Handler
	Portfolio   *portfolio.Handler
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	db     *database.DB

	// writeMu serializes the endpoints that recompute and persist shared
	// state. The engines themselves are single-writer by contract.
	writeMu sync.Mutex

	allocation  *allocation.Handler
	rebalancing *rebalancing.Handler
	portfolio   *portfolio.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		db:          cfg.DB,
		allocation:  cfg.Allocation,
		rebalancing: cfg.Rebalancing,
		portfolio:   cfg.Portfolio,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		// Allocation builder
		r.Route("/allocation", func(r chi.Router) {
			r.Get("/summary", s.allocation.HandleGetSummary)
			r.Get("/rules", s.portfolio.HandleGetRules)
			r.Put("/rules", s.serialized(s.portfolio.HandleUpdateRules))
			r.Post("/reconcile", s.serialized(s.allocation.HandleReconcile))
		})

		// Portfolios and positions
		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", s.portfolio.HandleList)
			r.Post("/", s.serialized(s.portfolio.HandleCreate))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.portfolio.HandleGet)
				r.Put("/", s.serialized(s.portfolio.HandleUpdate))
				r.Delete("/", s.serialized(s.portfolio.HandleDelete))
				r.Post("/positions", s.serialized(s.portfolio.HandleAddPosition))
			})
			r.Put("/positions/{positionID}", s.serialized(s.portfolio.HandleUpdatePosition))
			r.Delete("/positions/{positionID}", s.serialized(s.portfolio.HandleDeletePosition))
		})

		// Rebalancing
		r.Route("/rebalance", func(r chi.Router) {
			r.Post("/plan", s.serialized(s.rebalancing.HandlePlan))
		})

		// Saved simulations
		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", s.rebalancing.HandleListSimulations)
			r.Post("/", s.serialized(s.rebalancing.HandleSaveSimulation))
			r.Get("/{id}", s.rebalancing.HandleGetSimulation)
			r.Delete("/{id}", s.serialized(s.rebalancing.HandleDeleteSimulation))
		})

		// Snapshot history
		r.Get("/snapshots", s.portfolio.HandleSnapshotHistory)
	})
}

// serialized wraps a mutating handler so recompute-and-persist cycles never
// interleave
func (s *Server) serialized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		next(w, r)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
