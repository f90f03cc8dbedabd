package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/x402rag/gateway/internal/logger"
	"github.com/x402rag/gateway/internal/ratelimit"
	"github.com/x402rag/gateway/internal/runtimectx"
)

// Server wires handlers, middleware, and dependencies into an
// http.Server ready to listen.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	rc *runtimectx.Context
}

// New builds the HTTP server with its router fully configured against rc.
func New(rc *runtimectx.Context) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{rc: rc},
		httpServer: &http.Server{
			Addr:         rc.Config.Server.Address,
			ReadTimeout:  rc.Config.Server.ReadTimeout.Duration,
			WriteTimeout: rc.Config.Server.WriteTimeout.Duration,
			IdleTimeout:  rc.Config.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	ConfigureRouter(router, rc)

	return s
}

// ConfigureRouter attaches the gateway's routes to an existing router.
func ConfigureRouter(router chi.Router, rc *runtimectx.Context) {
	if router == nil {
		return
	}

	handler := handlers{rc: rc}

	if len(rc.Config.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   rc.Config.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"X-PAYMENT-RESPONSE"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(securityHeadersMiddleware)
	router.Use(logger.Middleware(rc.Logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Use(ratelimit.GlobalLimiter(rc.RateLimitConfig))
	router.Use(ratelimit.WalletLimiter(rc.RateLimitConfig))
	router.Use(ratelimit.IPLimiter(rc.RateLimitConfig))

	prefix := rc.Config.Server.RoutePrefix

	// Lightweight endpoints with a short timeout: health, discovery, metrics.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get(prefix+"/health", handler.health)
		r.Get("/.well-known/payment-options", handler.wellKnownPaymentOptions)
		r.With(adminMetricsAuth(rc.Config.Server.AdminMetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	// Indexing and retrieval endpoints get a longer timeout: retrieval
	// waits on a facilitator round trip (verify + settle), which can
	// run up to the configured max timeout.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))
		r.Post(prefix+"/docs/index", handler.indexDocuments)
		r.Post(prefix+"/docs/index/web", handler.indexWebPages)
		r.Post(prefix+"/docs/search", handler.search)
		r.Post(prefix+"/docs/chunks", handler.chunks)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
