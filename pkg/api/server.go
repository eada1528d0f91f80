package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/api/docs"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
)

// Ensure docs are initialized
var _ = docs.SwaggerInfo

const (
	shutdownCtxTimeout = 10 * time.Second
	readHeaderTimeout  = 5 * time.Second
)

// Server represents the API HTTP server.
type Server struct {
	config  *config.APIConfig
	handler *Handler
	log     *logger.Logger
}

// NewServer creates a new API server.
func NewServer(cfg *config.APIConfig, registry IndexRegistry, log *logger.Logger) *Server {
	log = log.WithComponent(common.ComponentAPI)

	return &Server{
		config:  cfg,
		handler: NewHandler(registry, log),
		log:     log,
	}
}

func (s *Server) Name() string { return common.ComponentAPI }

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handler.Health)
	mux.HandleFunc("GET /api/v1/indexes", s.handler.ListIndexes)
	mux.HandleFunc("GET /api/v1/indexes/{name}", s.handler.GetIndex)
	mux.HandleFunc("POST /api/v1/indexes/{name}/restart", s.handler.RestartIndex)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(s.log)(h)
	h = LoggingMiddleware(s.log)(h)

	if s.config.CORS != nil {
		h = CORSMiddleware(s.config.CORS.AllowedOrigins)(h)
	}

	return h
}

// Run serves the API until ctx is done. A disabled API only waits for ctx.
func (s *Server) Run(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		<-ctx.Done()
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	return s.Serve(ctx, listener)
}

// Serve serves the API on listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout.Duration,
		WriteTimeout:      s.config.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	s.log.Infof("API server listening on %s", listener.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("Shutting down API server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
