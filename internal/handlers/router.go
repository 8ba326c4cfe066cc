package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vrf-flip-backend/internal/indexer"
	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/middleware"
	"vrf-flip-backend/internal/services"
)

type RouterConfig struct {
	Engine     *services.GameEngine
	JWT        *services.JWTService
	Hub        *WebSocketHub
	Bets       *indexer.Indexer
	Limiter    middleware.RateLimiter
	AdminToken string
	BetLimit   int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gameHandler := NewGameHandler(cfg.Engine, cfg.Bets)
	adminHandler := NewAdminHandler(cfg.Engine, cfg.JWT)
	oracleHandler := NewOracleHandler(cfg.Engine)
	wsHandler := NewWebSocketHandler(cfg.Engine, cfg.Hub)

	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(), middleware.CORS())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/games", gameHandler.Catalog)

	router.POST("/oracle/settle", oracleHandler.Settle)

	admin := router.Group("/admin")
	admin.Use(middleware.AdminMiddleware(cfg.AdminToken))
	{
		admin.POST("/house", adminHandler.InitializeHouse)
		admin.GET("/house", adminHandler.GetHouse)
		admin.POST("/house/oracle", adminHandler.UpdateOracle)
		admin.POST("/players", adminHandler.InitializePlayer)
		admin.POST("/players/:authority/token", adminHandler.IssueToken)
		admin.POST("/deposits", adminHandler.Deposit)
		admin.POST("/accounts/close", adminHandler.CloseAccount)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWT))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/me", gameHandler.GetPlayer)

		games := protected.Group("/games")
		{
			games.POST("/bet", middleware.RateLimitMiddleware(cfg.Limiter, cfg.BetLimit, services.DefaultRateLimitWindow), gameHandler.PlaceBet)
			games.GET("/round", gameHandler.CurrentRound)
			games.GET("/history", gameHandler.History)
			games.GET("/balance", gameHandler.GetBalance)
			games.GET("/bets", gameHandler.Bets)
		}
	}

	return router
}
