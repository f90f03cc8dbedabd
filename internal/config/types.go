package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Mongo          MongoConfig          `yaml:"mongo"`
	Solana         SolanaConfig         `yaml:"solana"`
	Embedding      EmbeddingConfig      `yaml:"embedding"`
	Chunking       ChunkingConfig       `yaml:"chunking"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout         Duration `yaml:"read_timeout"`
	WriteTimeout        Duration `yaml:"write_timeout"`
	IdleTimeout         Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins  []string `yaml:"cors_allowed_origins"`
	RoutePrefix         string   `yaml:"route_prefix"`
	AdminMetricsAPIKey  string   `yaml:"admin_metrics_api_key"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

// PostgresConfig configures the purchase ledger backend.
type PostgresConfig struct {
	ConnString  string   `yaml:"conn_string"`
	TableName   string   `yaml:"table_name"`
	MaxOpenConn int      `yaml:"max_open_conn"`
	MaxIdleConn int      `yaml:"max_idle_conn"`
	ConnMaxLife Duration `yaml:"conn_max_life"`
}

// MongoConfig configures the vector index backend.
type MongoConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Collection     string `yaml:"collection"`
	UseAtlasSearch bool   `yaml:"use_atlas_search"`
	SearchIndex    string `yaml:"search_index"`
}

// SolanaConfig holds x402/Solana payment rail configuration.
type SolanaConfig struct {
	Network                      string   `yaml:"network"`
	RPCURL                       string   `yaml:"rpc_url"`
	USDCMint                     string   `yaml:"usdc_mint"`
	USDCDecimals                 uint8    `yaml:"usdc_decimals"`
	PayToAddress                 string   `yaml:"pay_to_address"`
	FeePayerAddress               string   `yaml:"fee_payer_address"`
	FacilitatorURL                string   `yaml:"facilitator_url"`
	MaxTimeoutSeconds             int      `yaml:"max_timeout_seconds"`
	AuthTTLSeconds                int      `yaml:"auth_ttl_seconds"`
	AuthClockSkewSeconds           int      `yaml:"auth_clock_skew_seconds"`
	ComputeUnitLimit               uint32   `yaml:"compute_unit_limit"`
	ComputeUnitPriceMicroLamports  uint64   `yaml:"compute_unit_price_micro_lamports"`
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai, gemini, huggingface, fake
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
}

// ChunkingConfig controls text splitting and retrieval limits.
type ChunkingConfig struct {
	ChunkSize          int  `yaml:"chunk_size"`
	ChunkOverlap       int  `yaml:"chunk_overlap"`
	MaxRetrievedChunks int  `yaml:"max_retrieved_chunks"`
	MinTextLen         int  `yaml:"min_text_len"`
	UseJSRenderFallback bool `yaml:"use_js_render_fallback"`
}

// RateLimitConfig configures per-scope request throttling.
type RateLimitConfig struct {
	GlobalEnabled    bool     `yaml:"global_enabled"`
	GlobalLimit      int      `yaml:"global_limit"`
	GlobalWindow     Duration `yaml:"global_window"`
	PerWalletEnabled bool     `yaml:"per_wallet_enabled"`
	PerWalletLimit   int      `yaml:"per_wallet_limit"`
	PerWalletWindow  Duration `yaml:"per_wallet_window"`
	PerIPEnabled     bool     `yaml:"per_ip_enabled"`
	PerIPLimit       int      `yaml:"per_ip_limit"`
	PerIPWindow      Duration `yaml:"per_ip_window"`
}

// CircuitBreakerConfig configures breaker behavior for external dependencies.
type CircuitBreakerConfig struct {
	Enabled     bool                 `yaml:"enabled"`
	Facilitator BreakerServiceConfig `yaml:"facilitator"`
	SolanaRPC   BreakerServiceConfig `yaml:"solana_rpc"`
}

// BreakerServiceConfig configures a single gobreaker instance.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}
