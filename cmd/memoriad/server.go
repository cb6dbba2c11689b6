package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ninaia/memoria/api/handlers"
	"github.com/ninaia/memoria/config"
	"github.com/ninaia/memoria/internal/cache"
	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/internal/metrics"
	"github.com/ninaia/memoria/internal/server"
	"github.com/ninaia/memoria/memory"
	"github.com/ninaia/memoria/session"
	"github.com/ninaia/memoria/store"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server wires the memory engine to its HTTP surfaces.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	engine       *memory.Engine
	cacheManager *cache.Manager

	httpManager    *server.Manager
	metricsManager *server.Manager

	healthHandler   *handlers.HealthHandler
	memoryHandler   *handlers.MemoryHandler
	entityHandler   *handlers.EntityHandler
	sessionHandler  *handlers.SessionHandler
	snapshotHandler *handlers.SnapshotHandler

	metricsCollector *metrics.Collector

	rateLimiterCancel context.CancelFunc

	wg sync.WaitGroup
}

// NewServer creates a server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings up the engine and both HTTP listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("memoria", s.logger)

	if err := s.initEngine(); err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}

	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("database_driver", s.cfg.Database.Driver),
		zap.Bool("cache_enabled", s.cfg.Cache.Enabled),
	)

	return nil
}

// =============================================================================
// 🔧 initialization
// =============================================================================

// initEngine opens the document store and database and builds the engine.
func (s *Server) initEngine() error {
	fileDocs, err := store.NewFileDocumentStore(s.cfg.Documents.Dir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}

	var docs store.DocumentStore = fileDocs
	if s.cfg.Cache.Enabled {
		mgr, err := cache.NewManager(cache.Config{
			Addr:       s.cfg.Cache.Addr,
			Password:   s.cfg.Cache.Password,
			DB:         s.cfg.Cache.DB,
			Prefix:     s.cfg.Cache.Prefix,
			DefaultTTL: s.cfg.Cache.TTL,
		}, s.logger)
		if err != nil {
			// The cached store already degrades to its inner store on
			// Redis failures; a dead Redis at boot only costs the cache.
			s.logger.Warn("Redis unavailable, document cache disabled", zap.Error(err))
		} else {
			s.cacheManager = mgr
			docs = store.NewCachedDocumentStore(fileDocs, mgr, s.cfg.Cache.TTL, s.logger)
			s.logger.Info("Document cache enabled", zap.String("addr", s.cfg.Cache.Addr))
		}
	}

	pool := database.DefaultPoolConfig()
	if s.cfg.Database.MaxOpenConns > 0 {
		pool.MaxOpenConns = s.cfg.Database.MaxOpenConns
	}
	if s.cfg.Database.MaxIdleConns > 0 {
		pool.MaxIdleConns = s.cfg.Database.MaxIdleConns
	}
	if s.cfg.Database.ConnMaxLifetime > 0 {
		pool.ConnMaxLifetime = s.cfg.Database.ConnMaxLifetime
	}

	st, err := store.Open(store.Config{
		Driver:          s.cfg.Database.Driver,
		Path:            s.cfg.Database.Name,
		DSN:             s.cfg.Database.DSN(),
		Pool:            pool,
		SkipAutoMigrate: s.cfg.Database.SkipAutoMigrate,
	}, docs, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	engineOpts := []memory.Option{memory.WithCollector(s.metricsCollector)}
	if s.cfg.Session.TokenModel != "" {
		counter, err := session.NewTiktokenCounter(s.cfg.Session.TokenModel)
		if err != nil {
			s.logger.Warn("tiktoken model unavailable, using heuristic counter",
				zap.String("model", s.cfg.Session.TokenModel), zap.Error(err))
		} else {
			engineOpts = append(engineOpts, memory.WithTokenCounter(counter))
		}
	}

	s.engine = memory.New(st, s.logger, engineOpts...)
	return nil
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.memoryHandler = handlers.NewMemoryHandler(s.engine, s.logger)
	s.entityHandler = handlers.NewEntityHandler(s.engine, s.logger)
	s.sessionHandler = handlers.NewSessionHandler(s.engine.Sessions(), s.logger)
	s.snapshotHandler = handlers.NewSnapshotHandler(s.engine, s.cfg.Documents.BackupDir, s.logger)

	// Readiness probes the dependencies the request path needs.
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", func(ctx context.Context) error {
		_, err := s.engine.GetStatistics(ctx)
		return err
	}))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", s.cacheManager.Ping))
	}
}

// =============================================================================
// 🌐 HTTP server
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// Probes and version
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// Memory cycle
	mux.HandleFunc("POST /api/v1/memory/input", s.memoryHandler.HandleProcessInput)
	mux.HandleFunc("GET /api/v1/memory/context", s.memoryHandler.HandleGetContext)
	mux.HandleFunc("POST /api/v1/memory/response", s.memoryHandler.HandleUpdateResponse)

	// Entities
	mux.HandleFunc("GET /api/v1/users", s.entityHandler.HandleListUsers)
	mux.HandleFunc("GET /api/v1/users/{id}", s.entityHandler.HandleGetUser)
	mux.HandleFunc("DELETE /api/v1/users/{id}", s.entityHandler.HandleDeleteUser)
	mux.HandleFunc("GET /api/v1/channels", s.entityHandler.HandleListChannels)
	mux.HandleFunc("GET /api/v1/channels/{id}", s.entityHandler.HandleGetChannel)
	mux.HandleFunc("DELETE /api/v1/channels/{id}", s.entityHandler.HandleDeleteChannel)

	// Personality
	mux.HandleFunc("GET /api/v1/channels/{id}/personality", s.entityHandler.HandleGetPersonality)
	mux.HandleFunc("PUT /api/v1/channels/{id}/personality", s.entityHandler.HandleSetPersonality)
	mux.HandleFunc("POST /api/v1/channels/{id}/personality/adapt", s.memoryHandler.HandleAdaptPersonality)
	mux.HandleFunc("GET /api/v1/profiles", s.entityHandler.HandleListProfiles)
	mux.HandleFunc("POST /api/v1/profiles", s.entityHandler.HandleSaveProfile)
	mux.HandleFunc("GET /api/v1/profiles/{name}", s.entityHandler.HandleGetProfile)
	mux.HandleFunc("DELETE /api/v1/profiles/{name}", s.entityHandler.HandleDeleteProfile)

	// Search, statistics and snapshots
	mux.HandleFunc("GET /api/v1/search", s.entityHandler.HandleSearch)
	mux.HandleFunc("GET /api/v1/statistics", s.entityHandler.HandleStatistics)
	mux.HandleFunc("POST /api/v1/backup", s.snapshotHandler.HandleBackup)
	mux.HandleFunc("POST /api/v1/restore", s.snapshotHandler.HandleRestore)

	// Sessions
	mux.HandleFunc("POST /api/v1/sessions", s.sessionHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/sessions", s.sessionHandler.HandleList)
	mux.HandleFunc("POST /api/v1/sessions/import", s.sessionHandler.HandleImport)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", s.sessionHandler.HandleGetMessages)
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", s.sessionHandler.HandleAddMessage)
	mux.HandleFunc("GET /api/v1/sessions/{id}/llm", s.sessionHandler.HandleGetLLMView)
	mux.HandleFunc("POST /api/v1/sessions/{id}/clear", s.sessionHandler.HandleClear)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/name", s.sessionHandler.HandleRename)
	mux.HandleFunc("POST /api/v1/sessions/{id}/export", s.sessionHandler.HandleExport)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.sessionHandler.HandleDelete)

	// Middleware chain
	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	chain := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CORS(s.cfg.Server.CORSOrigins),
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		chain = append(chain, RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	if s.cfg.Auth.Enabled {
		chain = append(chain, JWTAuth(s.cfg.Auth, skipAuthPaths, s.logger))
	}
	handler := Chain(mux, chain...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		CertFile:        s.cfg.Server.TLSCertFile,
		KeyFile:         s.cfg.Server.TLSKeyFile,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 metrics server
// =============================================================================

func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort == 0 {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 shutdown
// =============================================================================

// WaitForShutdown blocks until a termination signal, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown stops the listeners and closes the engine.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Error("Engine close error", zap.Error(err))
		}
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache close error", zap.Error(err))
		}
	}

	s.wg.Wait()

	s.logger.Info("Graceful shutdown completed")
}
