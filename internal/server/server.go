// Package server wires storage, the wiki client, providers, and the quiz
// pipeline into one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/wikiquiz/wikiquiz/internal/api"
	"github.com/wikiquiz/wikiquiz/internal/calllog"
	"github.com/wikiquiz/wikiquiz/internal/config"
	"github.com/wikiquiz/wikiquiz/internal/pagecache"
	"github.com/wikiquiz/wikiquiz/internal/pages"
	"github.com/wikiquiz/wikiquiz/internal/providers"
	"github.com/wikiquiz/wikiquiz/internal/quiz"
	"github.com/wikiquiz/wikiquiz/internal/server/endpoints"
	"github.com/wikiquiz/wikiquiz/internal/settings"
	"github.com/wikiquiz/wikiquiz/internal/storage"
	"github.com/wikiquiz/wikiquiz/internal/svcctx"
	"github.com/wikiquiz/wikiquiz/internal/wiki"
)

// Server is the main wikiquiz HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// sessionKV and persistentKV are closed on shutdown
	sessionKV    storage.KV
	persistentKV storage.KV

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	// Create provider registry from config and keep it hot-reloaded
	registry := providers.NewRegistry(cfg.Logger)
	appCfg := cfg.ConfigManager.Get()
	registry.Reload(appCfg.ToRegistryConfig(), appCfg.Defaults.Primary, appCfg.Defaults.Secondary)

	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToRegistryConfig(), c.Defaults.Primary, c.Defaults.Secondary)
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // quiz generation rides out provider fallback
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	appCfg := s.configMgr.Get()

	// Storage scopes: session (page cache, TTL-bound) and persistent
	// (settings, sidebar flag).
	sessionKV, persistentKV, err := s.openStorage(ctx, appCfg.Storage)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open storage: %w", err)
	}
	s.sessionKV = sessionKV
	s.persistentKV = persistentKV

	wikiClient := wiki.NewClient(wiki.ClientConfig{
		BaseURL:   appCfg.Wiki.BaseURL,
		UserAgent: appCfg.Wiki.UserAgent,
		Timeout:   time.Duration(appCfg.Wiki.TimeoutSeconds) * time.Second,
		Logger:    s.logger,
	})

	cache := pagecache.New(sessionKV, s.logger)
	pageSvc := pages.NewService(wikiClient, cache, s.logger)
	coordinator := pages.NewCoordinator(pageSvc, s.logger)
	settingsStore := settings.NewStore(persistentKV, s.logger)
	recorder := calllog.NewRecorder(sessionKV, s.logger)
	generator := quiz.NewGenerator(s.registry, recorder, s.logger)

	s.services = &svcctx.Services{
		Wiki:        wikiClient,
		Cache:       cache,
		Pages:       pageSvc,
		Coordinator: coordinator,
		Settings:    settingsStore,
		Registry:    s.registry,
		Generator:   generator,
		Tracker:     quiz.NewTracker(),
		CallLog:     recorder,
		ConfigMgr:   s.configMgr,
		Logger:      s.logger,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// openStorage constructs the two KV scopes from config.
func (s *Server) openStorage(ctx context.Context, cfg config.StorageConfig) (session, persistent storage.KV, err error) {
	switch cfg.Backend {
	case "", config.StorageBackendMemory:
		return storage.NewMemory(), storage.NewMemory(), nil
	case config.StorageBackendRedis:
		session, err = storage.NewRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix + "session:",
		})
		if err != nil {
			return nil, nil, err
		}
		persistent, err = storage.NewRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix + "persistent:",
		})
		if err != nil {
			session.Close()
			return nil, nil, err
		}
		return session, persistent, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// shutdown performs graceful shutdown of the HTTP server and storage.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.sessionKV != nil {
		if err := s.sessionKV.Close(); err != nil {
			s.logger.Error("session storage close error", "error", err)
		}
	}
	if s.persistentKV != nil {
		if err := s.persistentKV.Close(); err != nil {
			s.logger.Error("persistent storage close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until Start has constructed the services.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
