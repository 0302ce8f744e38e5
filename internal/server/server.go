package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"facility-planner/internal/config"
	"facility-planner/internal/database"
	"facility-planner/internal/distance"
	"facility-planner/internal/geocoding"
	"facility-planner/internal/handlers"
	"facility-planner/internal/planner"
	"facility-planner/internal/sqlite"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	listener   net.Listener
	addr       string
	logger     *log.Logger
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}
	logger.Info("opening database", "path", dbPath)
	db, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	distanceCalc := NewDistanceCalculator(cfg, db.DistanceCache(), logger)
	p := planner.NewPlanner(distanceCalc,
		planner.WithRestarts(cfg.Solver.Restarts),
		planner.WithParallelism(cfg.Solver.Parallelism),
		planner.WithWorkers(cfg.Solver.Workers),
		planner.WithLogger(logger.WithPrefix("planner")),
	)

	handler := &handlers.Handler{
		DB:          db,
		Planner:     p,
		Geocoder:    NewGeocoder(cfg, logger),
		Logger:      logger.WithPrefix("http"),
		Parallelism: cfg.Solver.Parallelism,
	}

	s := &Server{
		handler: handler,
		db:      db,
		addr:    cfg.Server.Addr,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// NewGeocoder builds the address geocoder, or returns nil when geocoding is disabled
func NewGeocoder(cfg *config.Config, logger *log.Logger) geocoding.Geocoder {
	if !cfg.Geocoding.Enabled {
		logger.Info("address geocoding disabled")
		return nil
	}
	return geocoding.NewNominatimGeocoder(
		geocoding.WithBaseURL(cfg.Geocoding.NominatimURL),
		geocoding.WithRateLimit(cfg.Geocoding.RateLimit.Duration),
		geocoding.WithLogger(logger.WithPrefix("geocoding")),
	)
}

// NewDistanceCalculator builds the configured distance provider
func NewDistanceCalculator(cfg *config.Config, cache database.DistanceCacheRepository, logger *log.Logger) distance.DistanceCalculator {
	if cfg.Distance.Provider == config.ProviderHaversine {
		return distance.NewHaversineCalculator(cfg.Distance.SpeedKPH * 1000 / 3600)
	}
	return distance.NewOSRMCalculator(cache,
		distance.WithBaseURL(cfg.Distance.OSRMURL),
		distance.WithHTTPClient(&http.Client{Timeout: cfg.Distance.Timeout.Duration}),
		distance.WithOSRMLogger(logger.WithPrefix("osrm")),
	)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)
	s.handler.Routes(r)
	return r
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info("starting server", "addr", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "err", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.logger.Info("request", "method", r.Method, "path", r.URL.Path,
			"status", lrw.statusCode, "duration", time.Since(start))
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
