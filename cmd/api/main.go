package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vrf-flip-backend/internal/config"
	"vrf-flip-backend/internal/handlers"
	"vrf-flip-backend/internal/indexer"
	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/middleware"
	"vrf-flip-backend/internal/models"
	"vrf-flip-backend/internal/oracle"
	"vrf-flip-backend/internal/services"
)

var genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

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
	bg := logger.BackgroundContext("api")

	services.InitMetrics()

	var (
		store       services.Store
		limiter     middleware.RateLimiter
		redisClient *services.RedisService
	)
	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisClient, err = services.NewRedisService(cfg)
		if err != nil {
			logger.Fatal(bg).Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		store, limiter = redisClient, redisClient
	default:
		store = services.NewMemoryStore()
	}

	signer, err := oracle.NewSignerFromHex(cfg.OracleFunction, cfg.OracleSignerSeed)
	if err != nil {
		logger.Fatal(bg).Err(err).Msg("failed to load oracle signer")
	}

	gameEngine := services.NewGameEngine(store, services.NewSystemClock(genesis))
	if err := bootstrapHouse(bg, gameEngine, cfg, signer); err != nil {
		logger.Fatal(bg).Err(err).Msg("failed to bootstrap house")
	}

	bets, err := indexer.Open(cfg.IndexerDSN)
	if err != nil {
		logger.Fatal(bg).Err(err).Msg("failed to open bet indexer")
	}
	defer bets.Close()

	hub := handlers.NewWebSocketHub()
	go hub.Run(ctx)

	if redisClient != nil {
		// every instance indexes and pushes what any instance commits
		bus := services.NewRedisEventBus(redisClient.Client())
		gameEngine.SetBroadcaster(bus)
		go func() {
			if err := bus.Relay(ctx, services.MultiBroadcaster{bets, hub}); err != nil {
				logger.Error(bg).Err(err).Msg("engine event relay stopped")
			}
		}()
	} else {
		gameEngine.SetBroadcaster(services.MultiBroadcaster{bets, hub})
	}

	switch cfg.OracleMode {
	case config.OracleRedis:
		gameEngine.SetDispatcher(oracle.NewRedisDispatcher(redisClient.Client()))
	default:
		runner := oracle.NewRunner(signer, gameEngine, cfg.OracleWorkers, 256)
		runner.Start(ctx)
		defer runner.Wait()
		gameEngine.SetDispatcher(runner)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Engine:     gameEngine,
		JWT:        services.NewJWTService(cfg),
		Hub:        hub,
		Bets:       bets,
		Limiter:    limiter,
		AdminToken: cfg.AdminToken,
		BetLimit:   cfg.BetRateLimit,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info(bg).Str("port", cfg.Port).Str("store", cfg.StoreBackend).Str("oracle", cfg.OracleMode).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(bg).Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info(bg).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(bg).Err(err).Msg("graceful shutdown failed")
	}
}

// bootstrapHouse creates the house from config on first start. An existing
// house is left as is.
func bootstrapHouse(ctx context.Context, engine *services.GameEngine, cfg *config.Config, signer *oracle.Signer) error {
	house, err := engine.GetHouse(ctx)
	if err == nil {
		if house.OracleSigner != signer.PublicKey() {
			logger.Warn(ctx).Str("house_signer", house.OracleSigner).Msg("configured oracle signer differs from the house binding")
		}
		return nil
	}
	if !errors.Is(err, models.ErrHouseNotInitialized) {
		return err
	}

	_, err = engine.InitializeHouse(ctx, services.HouseParams{
		Authority:        cfg.HouseAuthority,
		Mint:             cfg.ValueMint,
		FeeMint:          cfg.FeeMint,
		OracleFunction:   cfg.OracleFunction,
		OracleSigner:     signer.PublicKey(),
		RequestFee:       cfg.RequestFee,
		InitialLiquidity: cfg.InitialLiquidity,
	})
	if errors.Is(err, models.ErrHouseAlreadyInitialized) {
		// another instance won the race
		return nil
	}
	return err
}
