package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/atelier/pkg/config"
	"mercator-hq/atelier/pkg/gemini"
	"mercator-hq/atelier/pkg/limits/ratelimit"
	"mercator-hq/atelier/pkg/proxy"
	"mercator-hq/atelier/pkg/proxy/handlers"
	"mercator-hq/atelier/pkg/proxy/middleware"
	"mercator-hq/atelier/pkg/proxy/types"
	"mercator-hq/atelier/pkg/security/auth"
	securitytls "mercator-hq/atelier/pkg/security/tls"
	"mercator-hq/atelier/pkg/telemetry/health"
	"mercator-hq/atelier/pkg/telemetry/metrics"
	"mercator-hq/atelier/pkg/telemetry/tracing"
)

// Route paths.
const (
	PathGemini = "/api/gemini"
	PathHealth = "/api/health"
	PathConfig = "/api/config"
)

// Dependencies are the collaborators the server routes requests to.
type Dependencies struct {
	// Client performs upstream image calls.
	Client handlers.ImageClient

	// Limiter throttles /api/gemini. Nil disables rate limiting.
	Limiter *ratelimit.Limiter

	// Health runs the probes behind /api/health.
	Health *health.Checker

	// Metrics records request metrics and serves the metrics endpoint.
	// Nil disables both.
	Metrics *metrics.Collector

	// Logger is the base of every request-scoped logger.
	Logger *slog.Logger

	// APIKey returns the current upstream credential.
	APIKey handlers.KeyFunc

	// Current returns the live configuration; defaults to the startup one.
	Current func() *config.Config

	// Authenticator gates the API routes. Nil admits every caller.
	Authenticator auth.Authenticator
}

// Server is the HTTP front of the image proxy.
type Server struct {
	config       *config.Config
	deps         Dependencies
	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server for cfg.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Current == nil {
		deps.Current = func() *config.Config { return cfg }
	}
	if deps.Health == nil {
		deps.Health = health.New(cfg.Telemetry.Health.CheckTimeout, "")
	}
	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}
}

// Start binds the listen address and serves until ctx is cancelled, a
// termination signal arrives, Stop is called or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.Proxy.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Proxy.ListenAddress, err)
	}

	scheme := "http"
	if s.config.Proxy.TLS.Enabled {
		tlsCfg := s.config.Proxy.TLS
		tlsConfig, err := securitytls.ServerConfig(ctx, securitytls.Options{
			CertFile:       tlsCfg.CertFile,
			KeyFile:        tlsCfg.KeyFile,
			MinVersion:     tlsCfg.MinVersion,
			ReloadInterval: tlsCfg.ReloadInterval,
		}, s.deps.Logger)
		if err != nil {
			listener.Close()
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		listener = tls.NewListener(listener, tlsConfig)
		scheme = "https"
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Proxy.ReadTimeout,
		WriteTimeout: s.config.Proxy.WriteTimeout,
		IdleTimeout:  s.config.Proxy.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.deps.Logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("starting image proxy",
			"address", listener.Addr().String(),
			"scheme", scheme,
			"rate_limit", s.deps.Limiter != nil,
			"metrics", s.deps.Metrics != nil,
		)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.deps.Logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.deps.Logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.deps.Logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully drains in-flight requests, bounded by
// proxy.shutdown_timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.deps.Logger.Info("initiating graceful shutdown", "timeout", s.config.Proxy.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Proxy.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.deps.Logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.deps.Logger.Info("image proxy stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	cfg := s.config
	trustProxy := cfg.Proxy.TrustProxy()

	mux := http.NewServeMux()
	authenticate := middleware.AuthMiddleware(s.deps.Authenticator)

	// Every API route reaches the upstream, so all of them draw from the
	// same per-client budget. /metrics stays unthrottled.
	api := func(h http.Handler) http.Handler {
		h = authenticate(h)
		if s.deps.Limiter != nil {
			h = middleware.RateLimitMiddleware(s.deps.Limiter, s.rejectionObserver(), trustProxy)(h)
		}
		return h
	}

	image := handlers.NewGeminiHandler(handlers.GeminiHandlerConfig{
		Client:       s.deps.Client,
		Validator:    gemini.NewValidator(cfg.Limits.MaxPromptLength).WithMaxImageBytes(cfg.Limits.MaxImageBytes),
		APIKey:       s.deps.APIKey,
		MaxBodyBytes: cfg.Proxy.MaxBodyBytes,
	})

	mux.Handle(PathGemini, api(image))
	mux.Handle(PathHealth, api(s.deps.Health.Handler()))
	mux.Handle(PathConfig, api(handlers.NewConfigHandler(s.deps.Client, s.deps.APIKey, s.deps.Current)))
	if s.deps.Metrics != nil && cfg.Telemetry.MetricsEnabled() {
		mux.Handle(cfg.Telemetry.Metrics.Path, s.deps.Metrics.Handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		proxy.WriteError(w, r, types.NewNotFoundError())
	})

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	handler = middleware.SecurityHeadersMiddleware(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.LoggingMiddleware(s.httpObserver())(handler)
	handler = middleware.RecoveryMiddleware(s.panicObserver())(handler)
	handler = middleware.RequestIDMiddleware(s.deps.Logger, trustProxy)(handler)

	return handler
}

// corsConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) corsConfig() *middleware.CORSConfig {
	c := s.config.Proxy.CORS
	defaults := middleware.DefaultCORSConfig()
	out := &middleware.CORSConfig{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: c.AllowedMethods,
		AllowedHeaders: c.AllowedHeaders,
		ExposedHeaders: c.ExposedHeaders,
		MaxAge:         c.MaxAge,
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = defaults.AllowedOrigins
	}
	if len(out.AllowedMethods) == 0 {
		out.AllowedMethods = defaults.AllowedMethods
	}
	if len(out.AllowedHeaders) == 0 {
		out.AllowedHeaders = defaults.AllowedHeaders
	}
	if len(out.ExposedHeaders) == 0 {
		out.ExposedHeaders = defaults.ExposedHeaders
	}
	return out
}

// The observer accessors keep a nil *metrics.Collector from becoming a
// non-nil interface.
func (s *Server) httpObserver() middleware.HTTPObserver {
	if s.deps.Metrics == nil {
		return nil
	}
	return s.deps.Metrics
}

func (s *Server) panicObserver() middleware.PanicObserver {
	if s.deps.Metrics == nil {
		return nil
	}
	return s.deps.Metrics
}

func (s *Server) rejectionObserver() middleware.RejectionObserver {
	if s.deps.Metrics == nil {
		return nil
	}
	return s.deps.Metrics
}
