package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/x402rag/gateway/internal/config"
)

// ServiceType identifies an external service for circuit breaker isolation.
type ServiceType string

const (
	ServiceSolanaRPC   ServiceType = "solana_rpc"
	ServiceFacilitator ServiceType = "facilitator"
)

// Manager manages circuit breakers for different external services.
// Provides bulkhead isolation - each service has its own circuit breaker
// to prevent cascading failures across service boundaries.
type Manager struct {
	breakers map[ServiceType]*gobreaker.CircuitBreaker
	config   Config
}

// Config holds circuit breaker configuration for all services.
type Config struct {
	Enabled     bool
	SolanaRPC   BreakerConfig
	Facilitator BreakerConfig
}

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit breaker is half-open. Default: 3
	MaxRequests uint32

	// Interval is the cyclic period in closed state to clear the internal counts.
	// If 0, never clears. Default: 60s
	Interval time.Duration

	// Timeout is the period of the open state after which the state becomes half-open.
	// Default: 30s
	Timeout time.Duration

	// ConsecutiveFailures, FailureRatio and MinRequests drive the ReadyToTrip
	// check built by toGobreakerSettings: the breaker trips to open state
	// after ConsecutiveFailures failures in a row, or once at least
	// MinRequests requests have a failure ratio of FailureRatio or more.
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// NewManagerFromConfig creates a circuit breaker manager from application config.
func NewManagerFromConfig(cfg config.CircuitBreakerConfig) *Manager {
	return NewManager(Config{
		Enabled: cfg.Enabled,
		SolanaRPC: BreakerConfig{
			MaxRequests:         cfg.SolanaRPC.MaxRequests,
			Interval:            cfg.SolanaRPC.Interval.Duration,
			Timeout:             cfg.SolanaRPC.Timeout.Duration,
			ConsecutiveFailures: cfg.SolanaRPC.ConsecutiveFailures,
			FailureRatio:        cfg.SolanaRPC.FailureRatio,
			MinRequests:         cfg.SolanaRPC.MinRequests,
		},
		Facilitator: BreakerConfig{
			MaxRequests:         cfg.Facilitator.MaxRequests,
			Interval:            cfg.Facilitator.Interval.Duration,
			Timeout:             cfg.Facilitator.Timeout.Duration,
			ConsecutiveFailures: cfg.Facilitator.ConsecutiveFailures,
			FailureRatio:        cfg.Facilitator.FailureRatio,
			MinRequests:         cfg.Facilitator.MinRequests,
		},
	})
}

// NewManager creates a circuit breaker manager with the given configuration.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		breakers: make(map[ServiceType]*gobreaker.CircuitBreaker),
		config:   cfg,
	}

	if !cfg.Enabled {
		return m
	}

	m.breakers[ServiceSolanaRPC] = gobreaker.NewCircuitBreaker(toGobreakerSettings(string(ServiceSolanaRPC), cfg.SolanaRPC))
	m.breakers[ServiceFacilitator] = gobreaker.NewCircuitBreaker(toGobreakerSettings(string(ServiceFacilitator), cfg.Facilitator))

	return m
}

// Breaker returns the raw gobreaker.CircuitBreaker backing service, for
// callers (like an HTTP facilitator client) that take one directly instead
// of going through Execute. Returns nil if circuit breaking is disabled or
// the service isn't configured.
func (m *Manager) Breaker(service ServiceType) *gobreaker.CircuitBreaker {
	if !m.config.Enabled {
		return nil
	}
	return m.breakers[service]
}

// Execute wraps a function call with circuit breaker protection. If circuit
// breaking is disabled or not configured for the service, executes directly.
func (m *Manager) Execute(service ServiceType, fn func() (interface{}, error)) (interface{}, error) {
	if !m.config.Enabled {
		return fn()
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return fn()
	}

	return breaker.Execute(fn)
}

// State returns the current state of a circuit breaker. Returns "disabled"
// if circuit breaking is off, or "not_configured" if the service is unknown.
func (m *Manager) State(service ServiceType) string {
	if !m.config.Enabled {
		return "disabled"
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return "not_configured"
	}

	return breaker.State().String()
}

// Counts returns the current counts for a circuit breaker.
func (m *Manager) Counts(service ServiceType) Counts {
	if !m.config.Enabled {
		return Counts{}
	}

	breaker, ok := m.breakers[service]
	if !ok {
		return Counts{}
	}

	c := breaker.Counts()
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// Counts represents circuit breaker statistics.
type Counts struct {
	Requests             uint32
	TotalSuccesses        uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// toGobreakerSettings converts our config to gobreaker.Settings.
func toGobreakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}

			if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
				if counts.Requests >= cfg.MinRequests {
					failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
					if failureRate >= cfg.FailureRatio {
						return true
					}
				}
			}

			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			fmt.Printf("circuit breaker %s: %s -> %s\n", name, from.String(), to.String())
		},
	}
}

// DefaultConfig returns sensible defaults for circuit breaker configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		SolanaRPC: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
		Facilitator: BreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			FailureRatio:        0.5,
			MinRequests:         10,
		},
	}
}
