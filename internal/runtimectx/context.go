// Package runtimectx assembles the gateway's components — storage
// backends, retrieval services, and the x402 payment pipeline — from
// config into one explicitly constructed graph, wired once at startup
// for embedding or standalone serving.
package runtimectx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/x402rag/gateway/internal/auth"
	"github.com/x402rag/gateway/internal/chunking"
	"github.com/x402rag/gateway/internal/circuitbreaker"
	"github.com/x402rag/gateway/internal/config"
	"github.com/x402rag/gateway/internal/embedding"
	"github.com/x402rag/gateway/internal/index"
	"github.com/x402rag/gateway/internal/ledger"
	"github.com/x402rag/gateway/internal/lifecycle"
	"github.com/x402rag/gateway/internal/loader"
	"github.com/x402rag/gateway/internal/logger"
	"github.com/x402rag/gateway/internal/metrics"
	"github.com/x402rag/gateway/internal/ratelimit"
	"github.com/x402rag/gateway/internal/retrieval"
	"github.com/x402rag/gateway/internal/vectorstore"
	"github.com/x402rag/gateway/pkg/x402"
)

// Context holds every component the gateway's HTTP surface needs, wired
// from a single Config. It is constructed once at startup and passed to
// the HTTP server.
type Context struct {
	Config *config.Config

	Ledger     ledger.Ledger
	Index      vectorstore.Index
	Embedder   embedding.Embedder
	IndexSvc   *index.Service
	Loader     *loader.Loader
	Retrieval  *retrieval.Service
	Pipeline   *retrieval.Pipeline
	Auth       *auth.Verifier
	Facilitator x402.Facilitator
	Payments   *x402.Handler

	Metrics        *metrics.Metrics
	Breakers       *circuitbreaker.Manager
	RateLimitConfig ratelimit.Config
	Logger         zerolog.Logger

	resources *lifecycle.Manager
}

// Option configures Context construction, mirroring the functional-option
// pattern used to let callers swap in fakes for any backend.
type Option func(*options)

type options struct {
	ledger      ledger.Ledger
	index       vectorstore.Index
	embedder    embedding.Embedder
	facilitator x402.Facilitator
}

// WithLedger overrides the purchase ledger backend.
func WithLedger(l ledger.Ledger) Option {
	return func(o *options) { o.ledger = l }
}

// WithIndex overrides the vector index backend.
func WithIndex(i vectorstore.Index) Option {
	return func(o *options) { o.index = i }
}

// WithEmbedder overrides the embedding provider.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithFacilitator overrides the x402 facilitator client.
func WithFacilitator(f x402.Facilitator) Option {
	return func(o *options) { o.facilitator = f }
}

// New wires a Context from cfg, constructing any backend not supplied via
// an Option from cfg's settings.
func New(cfg *config.Config, opts ...Option) (*Context, error) {
	if cfg == nil {
		return nil, errors.New("runtimectx: config required")
	}

	optState := options{}
	for _, opt := range opts {
		opt(&optState)
	}

	rc := &Context{
		Config:    cfg,
		resources: lifecycle.NewManager(),
	}

	rc.Metrics = metrics.New(nil)
	rc.Logger = logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "retrieval-gateway",
		Environment: cfg.Logging.Environment,
	})

	rc.Breakers = circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	rc.RateLimitConfig = ratelimit.Config{
		GlobalEnabled:    cfg.RateLimit.GlobalEnabled,
		GlobalLimit:      cfg.RateLimit.GlobalLimit,
		GlobalWindow:     cfg.RateLimit.GlobalWindow.Duration,
		PerWalletEnabled: cfg.RateLimit.PerWalletEnabled,
		PerWalletLimit:   cfg.RateLimit.PerWalletLimit,
		PerWalletWindow:  cfg.RateLimit.PerWalletWindow.Duration,
		PerIPEnabled:     cfg.RateLimit.PerIPEnabled,
		PerIPLimit:       cfg.RateLimit.PerIPLimit,
		PerIPWindow:      cfg.RateLimit.PerIPWindow.Duration,
		Metrics:          rc.Metrics,
	}

	if optState.ledger != nil {
		rc.Ledger = optState.ledger
	} else {
		pgLedger, err := ledger.NewPostgresLedger(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("runtimectx: init ledger: %w", err)
		}
		rc.Ledger = pgLedger
		rc.resources.Register("purchase-ledger", pgLedger)
	}

	if optState.index != nil {
		rc.Index = optState.index
	} else {
		mongoIndex, err := vectorstore.NewMongoVectorIndex(cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("runtimectx: init vector index: %w", err)
		}
		rc.Index = mongoIndex
	}

	if optState.embedder != nil {
		rc.Embedder = optState.embedder
	} else {
		embedder, err := embedding.New(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("runtimectx: init embedder: %w", err)
		}
		rc.Embedder = embedder
	}

	splitter := chunking.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	rc.IndexSvc = index.NewService(splitter, rc.Embedder, rc.Index)
	rc.Retrieval = retrieval.NewService(rc.Embedder, rc.Index, cfg.Chunking.MaxRetrievedChunks)

	// No JSRenderer is wired by default — JS-rendered fallback is an
	// external headless-render collaborator, left nil until one is
	// supplied through a future Option.
	rc.Loader = loader.New(cfg.Chunking.MinTextLen, cfg.Chunking.UseJSRenderFallback, nil)

	rc.Auth = auth.NewVerifier(
		time.Duration(cfg.Solana.AuthTTLSeconds)*time.Second,
		time.Duration(cfg.Solana.AuthClockSkewSeconds)*time.Second,
	)

	if optState.facilitator != nil {
		rc.Facilitator = optState.facilitator
	} else {
		breaker := rc.Breakers.Breaker(circuitbreaker.ServiceFacilitator)
		rc.Facilitator = x402.NewHTTPFacilitator(cfg.Solana.FacilitatorURL, breaker)
	}

	rc.Payments = x402.NewHandler(
		rc.Facilitator,
		cfg.Solana.Network,
		cfg.Solana.USDCMint,
		cfg.Solana.PayToAddress,
		cfg.Solana.FeePayerAddress,
		cfg.Solana.MaxTimeoutSeconds,
	)

	rc.Pipeline = retrieval.NewPipeline(rc.Retrieval, rc.Ledger, rc.Payments)

	return rc, nil
}

// Close closes every resource registered with the Context's lifecycle
// manager. New registers only the Postgres ledger it opens; the vector
// index and the facilitator client are not closed here.
func (rc *Context) Close() error {
	return rc.resources.Close()
}

// NewHandler is a convenience that wires a Context and returns its
// shutdown func alongside it, for callers that only need the Context once
// to build an http.Handler elsewhere.
func NewHandler(cfg *config.Config, build func(*Context) http.Handler, opts ...Option) (http.Handler, func(context.Context) error, error) {
	rc, err := New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func(context.Context) error {
		return rc.Close()
	}
	return build(rc), shutdown, nil
}
