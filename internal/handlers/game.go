package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vrf-flip-backend/internal/indexer"
	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/middleware"
	"vrf-flip-backend/internal/models"
	"vrf-flip-backend/internal/services"
)

type GameHandler struct {
	gameEngine *services.GameEngine
	bets       *indexer.Indexer
}

func NewGameHandler(gameEngine *services.GameEngine, bets *indexer.Indexer) *GameHandler {
	return &GameHandler{
		gameEngine: gameEngine,
		bets:       bets,
	}
}

func (h *GameHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"games":       models.Catalog(),
		"max_bet":     models.MaxBetAmount,
		"cooldown":    models.BetCooldown,
		"max_history": models.MaxHistory,
	})
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	accepted, err := h.gameEngine.PlaceBet(c.Request.Context(), authority, req)
	if err != nil {
		respondError(c, "Failed to place bet", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"round":   accepted,
	})
}

func (h *GameHandler) GetPlayer(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)

	player, err := h.gameEngine.GetPlayer(c.Request.Context(), authority)
	if err != nil {
		respondError(c, "Failed to get player", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":            player.Address,
		"authority":          player.Authority,
		"escrow":             player.Escrow,
		"reward_address":     player.RewardAddress,
		"fee_wallet":         player.FeeWallet,
		"randomness_request": player.RandomnessRequest,
		"current_round":      player.CurrentRound,
	})
}

func (h *GameHandler) CurrentRound(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)
	ctx := c.Request.Context()

	player, err := h.gameEngine.GetPlayer(ctx, authority)
	if err != nil {
		respondError(c, "Failed to get round", err)
		return
	}
	request, err := h.gameEngine.GetRequest(ctx, authority)
	if err != nil {
		respondError(c, "Failed to get round", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"round":   player.CurrentRound,
		"request": request,
	})
}

func (h *GameHandler) History(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)

	history, err := h.gameEngine.History(c.Request.Context(), authority)
	if err != nil {
		respondError(c, "Failed to get history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	authority := c.GetString(middleware.AuthorityKey)

	balance, err := h.gameEngine.GetBalance(c.Request.Context(), authority)
	if err != nil {
		respondError(c, "Failed to get balance", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance,
	})
}

// Bets serves the long-form log from the indexer.
func (h *GameHandler) Bets(c *gin.Context) {
	if h.bets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Bet log is disabled"})
		return
	}
	authority := c.GetString(middleware.AuthorityKey)
	ctx := c.Request.Context()

	limit := indexer.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	bets, err := h.bets.RecentBets(ctx, authority, limit)
	if err != nil {
		logger.Error(ctx).Err(err).Str("authority", authority).Msg("failed to read bet log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get bets"})
		return
	}
	stats, err := h.bets.PlayerStats(ctx, authority)
	if err != nil {
		logger.Error(ctx).Err(err).Str("authority", authority).Msg("failed to aggregate bet log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get bets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bets":  bets,
		"stats": stats,
	})
}
