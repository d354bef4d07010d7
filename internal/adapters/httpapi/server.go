package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
)

// Server is the HTTP transport in front of the triage service.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(svc *core.TriageService, cfg *config.Config, logger *zap.Logger) *Server {
	serverCfg := cfg.GetServer()
	handlers := NewHandlers(svc, cfg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/emails/classificar", handlers.ClassifyText)
	mux.HandleFunc("POST /api/v1/emails/classificar/arquivo", handlers.ClassifyFile)
	mux.HandleFunc("GET /api/v1/emails/providers", handlers.ListProviders)
	mux.HandleFunc("GET /api/v1/emails/health", handlers.Health)
	mux.HandleFunc("GET /health", handlers.Health)

	handler := corsMiddleware(serverCfg.CORSOrigins, requestLogMiddleware(logger, mux))

	return &Server{
		httpServer: &http.Server{
			Addr:              serverCfg.ListenAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      2 * time.Minute,
		},
		handlers: handlers,
		logger:   logger,
	}
}

// Start begins serving requests. It blocks until the listener fails
// or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware handles cross-origin requests from the frontend.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogMiddleware logs every request with latency.
func requestLogMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
