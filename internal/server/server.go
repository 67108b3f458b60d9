// Package server exposes claim verification over HTTP: a verify endpoint,
// a bulk ingestion trigger, and a health probe.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/veracity/internal/model"
)

// ClaimVerifier runs one verification workflow per call
type ClaimVerifier interface {
	Verify(ctx context.Context, claim string) (*model.VerificationResult, error)
}

// Ingestor loads the configured data directory into the store and
// returns the number of chunks written.
type Ingestor interface {
	Ingest(ctx context.Context) (int, error)
}

// Server is the HTTP front door
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	verifier ClaimVerifier
	ingestor Ingestor
	drain    func()
	logger   *slog.Logger
}

// Options wires a Server. Drain, when set, runs after the listener stops
// and before Run returns, typically to flush the write-back queue.
type Options struct {
	Addr     string
	Verifier ClaimVerifier
	Ingestor Ingestor
	Drain    func()
	Logger   *slog.Logger
}

// New builds the server and registers its routes
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(opts.Logger))

	s := &Server{
		engine:   engine,
		verifier: opts.Verifier,
		ingestor: opts.Ingestor,
		drain:    opts.Drain,
		logger:   opts.Logger,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	engine.GET("/health", s.handleHealth)
	api := engine.Group("/api/v1")
	api.POST("/verify", s.handleVerify)
	api.POST("/ingest", s.handleIngest)

	return s
}

// Handler exposes the routed engine, used by tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully and
// drains background work.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)

	if s.drain != nil {
		s.logger.Info("draining write-back queue")
		s.drain()
	}
	return err
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
