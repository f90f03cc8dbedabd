package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/x402rag/gateway/internal/metrics"
)

// Config holds rate limiting configuration.
type Config struct {
	// Global rate limiting (across all callers)
	GlobalEnabled bool
	GlobalLimit   int           // requests per window
	GlobalWindow  time.Duration // time window
	GlobalBurst   int           // burst capacity

	// Per-wallet rate limiting (identified by the payer wallet address)
	PerWalletEnabled bool
	PerWalletLimit   int
	PerWalletWindow  time.Duration
	PerWalletBurst   int

	// Per-IP rate limiting (fallback when no wallet is identified)
	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration
	PerIPBurst   int

	// Metrics collector (optional)
	Metrics *metrics.Metrics
}

// rateLimitResponse is the JSON error body for a rate limit rejection.
type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// DefaultConfig returns sensible default rate limits. These are generous
// limits designed to stop obvious spam while not restricting legitimate use.
func DefaultConfig() Config {
	return Config{
		// Global: 1000 req/min (16.6 req/sec) - prevents DoS
		GlobalEnabled: true,
		GlobalLimit:   1000,
		GlobalWindow:  1 * time.Minute,
		GlobalBurst:   100,

		// Per-wallet: 60 req/min (1 req/sec avg) - prevents wallet spam
		PerWalletEnabled: true,
		PerWalletLimit:   60,
		PerWalletWindow:  1 * time.Minute,
		PerWalletBurst:   10,

		// Per-IP: 120 req/min (2 req/sec avg) - fallback for anonymous requests
		PerIPEnabled: true,
		PerIPLimit:   120,
		PerIPWindow:  1 * time.Minute,
		PerIPBurst:   20,
	}
}

// createRateLimitHandler builds a standardized rate limit handler function,
// shared by the global, per-wallet, and per-IP limiters.
func createRateLimitHandler(
	limitType string,
	windowSeconds int,
	extractIdentifier func(*http.Request) string,
	metricsCollector *metrics.Metrics,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := "all"
		if extractIdentifier != nil {
			if id := extractIdentifier(r); id != "" {
				identifier = id
			}
		}

		if metricsCollector != nil {
			metricsCollector.ObserveRateLimit(limitType, identifier)
		}

		var message string
		switch limitType {
		case "global":
			message = "Global rate limit exceeded. Please try again later."
		case "per_wallet":
			if identifier != "" && identifier != "all" && identifier != "unknown" {
				message = fmt.Sprintf("Per-wallet rate limit exceeded for %s. Please try again later.", identifier)
			} else {
				message = "Rate limit exceeded. Please try again later."
			}
		case "per_ip":
			message = "IP rate limit exceeded. Please try again later."
		default:
			message = "Rate limit exceeded. Please try again later."
		}

		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           message,
			RetryAfterSeconds: windowSeconds,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}

// GlobalLimiter creates a global rate limiter middleware.
func GlobalLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.GlobalEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.GlobalLimit,
		cfg.GlobalWindow,
		httprate.WithLimitHandler(
			createRateLimitHandler(
				"global",
				int(cfg.GlobalWindow.Seconds()),
				nil,
				cfg.Metrics,
			),
		),
	)
}

// WalletLimiter creates a per-wallet rate limiter middleware. It extracts
// the wallet address from request headers or query params, falling back to
// IP-based limiting when no wallet is identified.
func WalletLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerWalletEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.PerWalletLimit,
		cfg.PerWalletWindow,
		httprate.WithKeyFuncs(walletKeyExtractor),
		httprate.WithLimitHandler(
			createRateLimitHandler(
				"per_wallet",
				int(cfg.PerWalletWindow.Seconds()),
				extractWalletFromRequest,
				cfg.Metrics,
			),
		),
	)
}

// IPLimiter creates a per-IP rate limiter middleware (fallback).
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(
			createRateLimitHandler(
				"per_ip",
				int(cfg.PerIPWindow.Seconds()),
				func(r *http.Request) string { return r.RemoteAddr },
				cfg.Metrics,
			),
		),
	)
}

// walletKeyExtractor is an httprate.KeyFunc that extracts the wallet address
// from a request, falling back to IP-based limiting when absent.
func walletKeyExtractor(r *http.Request) (string, error) {
	wallet := extractWalletFromRequest(r)
	if wallet == "" {
		return httprate.KeyByIP(r)
	}
	return "wallet:" + wallet, nil
}

// extractWalletFromRequest attempts to extract the wallet address from
// various request sources, prioritizing explicit identification over
// anything that would require parsing the payment payload.
func extractWalletFromRequest(r *http.Request) string {
	if wallet := r.Header.Get("X-Wallet"); wallet != "" {
		return wallet
	}
	if signer := r.Header.Get("X-Signer"); signer != "" {
		return signer
	}
	if wallet := r.URL.Query().Get("wallet"); wallet != "" {
		return wallet
	}
	return ""
}
