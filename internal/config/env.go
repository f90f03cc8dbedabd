package config

import (
	"os"
	"strings"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use the GATEWAY_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Server.Address, "GATEWAY_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "GATEWAY_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "GATEWAY_ADMIN_METRICS_API_KEY")
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}

	setIfEnv(&c.Logging.Level, "GATEWAY_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "GATEWAY_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "GATEWAY_ENVIRONMENT")

	setIfEnv(&c.Postgres.ConnString, "GATEWAY_POSTGRES_CONN_STRING")
	setIfEnv(&c.Postgres.TableName, "GATEWAY_POSTGRES_TABLE_NAME")

	setIfEnv(&c.Mongo.URI, "GATEWAY_MONGO_URI")
	setIfEnv(&c.Mongo.Database, "GATEWAY_MONGO_DATABASE")
	setIfEnv(&c.Mongo.Collection, "GATEWAY_MONGO_COLLECTION")
	setBoolIfEnv(&c.Mongo.UseAtlasSearch, "GATEWAY_MONGO_USE_ATLAS_SEARCH")
	setIfEnv(&c.Mongo.SearchIndex, "GATEWAY_MONGO_SEARCH_INDEX")

	setIfEnv(&c.Solana.Network, "GATEWAY_SOLANA_NETWORK")
	setIfEnv(&c.Solana.RPCURL, "GATEWAY_SOLANA_RPC_URL")
	setIfEnv(&c.Solana.USDCMint, "GATEWAY_SOLANA_USDC_MINT")
	setIfEnv(&c.Solana.PayToAddress, "GATEWAY_SOLANA_PAY_TO_ADDRESS")
	setIfEnv(&c.Solana.FeePayerAddress, "GATEWAY_SOLANA_FEE_PAYER_ADDRESS")
	setIfEnv(&c.Solana.FacilitatorURL, "GATEWAY_SOLANA_FACILITATOR_URL")

	setIfEnv(&c.Embedding.Provider, "GATEWAY_EMBEDDING_PROVIDER")
	setIfEnv(&c.Embedding.Model, "GATEWAY_EMBEDDING_MODEL")
	setIfEnv(&c.Embedding.APIKey, "GATEWAY_EMBEDDING_API_KEY")
	setIfEnv(&c.Embedding.BaseURL, "GATEWAY_EMBEDDING_BASE_URL")

	if v := os.Getenv("GATEWAY_CHUNK_SIZE"); v != "" {
		setIntIfEnv(&c.Chunking.ChunkSize, v)
	}
	if v := os.Getenv("GATEWAY_CHUNK_OVERLAP"); v != "" {
		setIntIfEnv(&c.Chunking.ChunkOverlap, v)
	}
	if v := os.Getenv("GATEWAY_MAX_RETRIEVED_CHUNKS"); v != "" {
		setIntIfEnv(&c.Chunking.MaxRetrievedChunks, v)
	}
	setBoolIfEnv(&c.Chunking.UseJSRenderFallback, "GATEWAY_USE_JS_RENDER_FALLBACK")

	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "GATEWAY_RATE_LIMIT_GLOBAL_ENABLED")
	setBoolIfEnv(&c.RateLimit.PerWalletEnabled, "GATEWAY_RATE_LIMIT_PER_WALLET_ENABLED")
	setBoolIfEnv(&c.RateLimit.PerIPEnabled, "GATEWAY_RATE_LIMIT_PER_IP_ENABLED")

	setBoolIfEnv(&c.CircuitBreaker.Enabled, "GATEWAY_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv parses a decimal integer into target, ignoring malformed values.
func setIntIfEnv(target *int, raw string) {
	n := 0
	neg := false
	for i, r := range raw {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		if len(raw) == 1 {
			return
		}
		n = -n
	}
	*target = n
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
