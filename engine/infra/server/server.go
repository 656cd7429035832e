package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/infra/monitoring"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

const (
	serverShutdownTimeout = 5 * time.Second
	httpReadTimeout       = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	healthCheckTimeout    = 2 * time.Second
	hostAny               = "0.0.0.0"
	hostLoopback          = "127.0.0.1"
)

// Queries is the read side served over HTTP.
type Queries interface {
	Article(ctx context.Context, family, ref string) (*retriever.Article, error)
	Search(ctx context.Context, family, query string, k int) ([]retriever.Result, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	serverConfig *config.ServerConfig
	queries      Queries
	store        Pinger
	monitoring   *monitoring.Service
	router       *gin.Engine
	ctx          context.Context
}

// NewServer wires the read-only API. mon may be nil.
func NewServer(
	ctx context.Context,
	cfg *config.ServerConfig,
	queries Queries,
	store Pinger,
	mon *monitoring.Service,
) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: configuration is required")
	}
	if queries == nil || store == nil {
		return nil, errors.New("server: queries and store are required")
	}
	s := &Server{
		serverConfig: cfg,
		queries:      queries,
		store:        store,
		monitoring:   mon,
		ctx:          ctx,
	}
	s.buildRouter()
	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT/SIGTERM or ctx cancellation, then shuts down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv := s.createHTTPServer()
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log := logger.FromContext(s.ctx)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Debug("Received shutdown signal, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) createHTTPServer() *http.Server {
	addr := s.serverConfig.FullAddress()
	logger.FromContext(s.ctx).Info("Starting HTTP server",
		"address", fmt.Sprintf("http://%s:%d", friendlyHost(s.serverConfig.Host), s.serverConfig.Port),
	)
	writeTimeout := s.serverConfig.Timeout
	if writeTimeout <= 0 {
		writeTimeout = httpReadTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: httpReadTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
