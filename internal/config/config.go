package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults, mirroring the
// upstream service's devnet defaults where no production value is known.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  Duration{Duration: 15 * time.Second},
			WriteTimeout: Duration{Duration: 60 * time.Second},
			IdleTimeout:  Duration{Duration: 60 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		Postgres: PostgresConfig{
			TableName:   "chunk_purchases",
			MaxOpenConn: 10,
			MaxIdleConn: 5,
			ConnMaxLife: Duration{Duration: 30 * time.Minute},
		},
		Mongo: MongoConfig{
			Database:   "retrieval_gateway",
			Collection: "chunks",
		},
		Solana: SolanaConfig{
			Network:                       "solana-devnet",
			RPCURL:                        "https://api.devnet.solana.com",
			USDCMint:                      "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
			USDCDecimals:                  6,
			FacilitatorURL:                "https://facilitator.payai.network",
			MaxTimeoutSeconds:             60,
			AuthTTLSeconds:                300,
			AuthClockSkewSeconds:          120,
			ComputeUnitLimit:              200000,
			ComputeUnitPriceMicroLamports: 0,
		},
		Embedding: EmbeddingConfig{
			Provider:   "fake",
			Dimensions: 768,
		},
		Chunking: ChunkingConfig{
			ChunkSize:          1200,
			ChunkOverlap:       150,
			MaxRetrievedChunks: 100,
			MinTextLen:         800,
		},
		RateLimit: RateLimitConfig{
			GlobalEnabled:    true,
			GlobalLimit:      1000,
			GlobalWindow:     Duration{Duration: time.Minute},
			PerWalletEnabled: true,
			PerWalletLimit:   60,
			PerWalletWindow:  Duration{Duration: time.Minute},
			PerIPEnabled:     true,
			PerIPLimit:       120,
			PerIPWindow:      Duration{Duration: time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled: true,
			Facilitator: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
			SolanaRPC: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// finalize applies cross-field defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "fake"
	}
	if c.Chunking.MaxRetrievedChunks <= 0 {
		c.Chunking.MaxRetrievedChunks = 100
	}

	if c.Solana.PayToAddress == "" {
		return fmt.Errorf("solana.pay_to_address is required")
	}
	if c.Postgres.ConnString == "" {
		return fmt.Errorf("postgres.conn_string is required")
	}
	return nil
}
