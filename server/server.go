package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xiaoyuanzhu-com/todo-api/api"
	"github.com/xiaoyuanzhu-com/todo-api/config"
	"github.com/xiaoyuanzhu-com/todo-api/db"
	"github.com/xiaoyuanzhu-com/todo-api/log"
	"github.com/xiaoyuanzhu-com/todo-api/memory"
	"github.com/xiaoyuanzhu-com/todo-api/metrics"
)

// Store is a todo store the server owns and closes on shutdown.
type Store interface {
	api.TodoStore
	Close() error
}

// Server owns the store and the HTTP listener
type Server struct {
	cfg *config.Config

	store    Store
	registry *prometheus.Registry

	router *gin.Engine
	http   *http.Server
}

// New opens the store and builds the router. For SQL targets this blocks on
// the startup readiness gate; a *db.StartupError means the database never
// became reachable and the process should exit.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		registry: metrics.NewRegistry(),
	}

	store, err := s.openStore(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store

	s.setupRouter()

	log.Info().Msg("server initialized successfully")
	return s, nil
}

// NewWithStore builds a server around an already open store.
func NewWithStore(cfg *config.Config, store Store) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: metrics.NewRegistry(),
	}
	s.setupRouter()
	return s
}

func (s *Server) openStore(ctx context.Context) (Store, error) {
	target, err := db.ParseTarget(s.cfg.DatabaseURL)
	if err == nil && target.IsMemory() {
		log.Warn().Msg("using in-memory store; todos are lost on restart")
		return memory.NewStore(), nil
	}

	startup := metrics.NewStartupMetrics(s.registry)
	dbCfg := DBConfig(s.cfg)
	dbCfg.OnRetry = startup.OnRetry

	log.Info().Msg("initializing database")
	database, err := db.Open(ctx, dbCfg)
	startup.Observe(err)
	if err != nil {
		return nil, err
	}
	return database, nil
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(log.RequestID())
	s.router.Use(log.GinLogger())

	if s.cfg.MetricsEnabled {
		s.router.Use(metrics.NewHTTPMetrics(s.registry).Middleware())
	}

	s.router.Use(corsMiddleware(s.cfg.AllowedOrigins()))

	// Security headers (production only)
	if !s.cfg.IsDevelopment() {
		s.router.Use(securityHeadersMiddleware())
	}

	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	s.router.SetTrustedProxies(nil)

	api.SetupRoutes(s.router, api.NewHandlers(s.store))

	if s.cfg.MetricsEnabled {
		s.router.GET("/metrics", metrics.Handler(s.registry))
	}

	s.http = &http.Server{
		Addr:     s.cfg.Addr(),
		Handler:  s.router,
		ErrorLog: log.StdErrorLogger(),
	}
}

// Start serves HTTP on the configured address and blocks until the server
// stops. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the store.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Error().Err(err).Msg("database close error")
			return err
		}
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

func (s *Server) Router() *gin.Engine            { return s.router }
func (s *Server) Registry() *prometheus.Registry { return s.registry }
func (s *Server) Store() Store                   { return s.store }
