// Command gatewayd runs the x402 retrieval gateway's HTTP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/x402rag/gateway/internal/config"
	"github.com/x402rag/gateway/internal/httpserver"
	"github.com/x402rag/gateway/internal/runtimectx"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; env vars and defaults apply regardless)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("gatewayd: failed to load .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("gatewayd: failed to load configuration")
	}

	rc, err := runtimectx.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("gatewayd: failed to wire runtime context")
	}

	zerolog.SetGlobalLevel(rc.Logger.GetLevel())
	srv := httpserver.New(rc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		rc.Logger.Info().Str("address", cfg.Server.Address).Msg("gatewayd: listening")
		if err := srv.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
			rc.Logger.Error().Err(err).Msg("gatewayd: server error")
		}
	}()

	<-ctx.Done()
	rc.Logger.Info().Msg("gatewayd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		rc.Logger.Error().Err(err).Msg("gatewayd: forced shutdown")
	}

	if err := rc.Close(); err != nil {
		rc.Logger.Error().Err(err).Msg("gatewayd: error releasing resources")
	}

	rc.Logger.Info().Msg("gatewayd: exited")
}
