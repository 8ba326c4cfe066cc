package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vrf-flip-backend/internal/config"
	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/oracle"
	"vrf-flip-backend/internal/services"
)

// The oracle function process: it consumes randomness requests published by
// the API and posts signed results back to the settle callback.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogFile != "" {
		if err := logger.InitWithFile(cfg.LogFile, cfg.LogLevel, cfg.LogFormat); err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
	} else {
		logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	bg := logger.BackgroundContext("oracle")

	if cfg.OracleSignerSeed == "" {
		logger.Fatal(bg).Msg("ORACLE_SIGNER_SEED is required")
	}
	signer, err := oracle.NewSignerFromHex(cfg.OracleFunction, cfg.OracleSignerSeed)
	if err != nil {
		logger.Fatal(bg).Err(err).Msg("failed to load oracle signer")
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Fatal(bg).Err(err).Msg("failed to connect to redis")
	}
	defer redisService.Close()

	runner := oracle.NewRunner(signer, oracle.NewHTTPSettler(cfg.SettleCallbackURL), cfg.OracleWorkers, 1024)
	runner.Start(ctx)

	logger.Info(bg).
		Str("function", signer.Function()).
		Str("signer", signer.PublicKey()).
		Str("callback", cfg.SettleCallbackURL).
		Int("workers", cfg.OracleWorkers).
		Msg("oracle function started")

	if err := oracle.Subscribe(ctx, redisService.Client(), signer.Function(), runner); err != nil {
		logger.Error(bg).Err(err).Msg("oracle subscription failed")
	}
	stop()
	runner.Wait()
	logger.Info(bg).Msg("oracle function stopped")
}
