package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/models"
	"vrf-flip-backend/internal/services"
)

// AdminHandler provisions the house and players. Every route sits behind
// the admin token.
type AdminHandler struct {
	gameEngine *services.GameEngine
	jwtService *services.JWTService
}

func NewAdminHandler(gameEngine *services.GameEngine, jwtService *services.JWTService) *AdminHandler {
	return &AdminHandler{
		gameEngine: gameEngine,
		jwtService: jwtService,
	}
}

type OracleBindingRequest struct {
	Authority      string `json:"authority" binding:"required"`
	OracleFunction string `json:"oracle_function" binding:"required"`
	OracleSigner   string `json:"oracle_signer" binding:"required"`
}

type PlayerRequest struct {
	Authority string `json:"authority" binding:"required"`
}

type DepositRequest struct {
	Authority string `json:"authority" binding:"required"`
	Asset     string `json:"asset" binding:"required,oneof=value fee"`
	Amount    string `json:"amount" binding:"required"`
}

type CloseAccountRequest struct {
	Address string `json:"address" binding:"required"`
	Signer  string `json:"signer" binding:"required"`
}

func (h *AdminHandler) InitializeHouse(c *gin.Context) {
	var req services.HouseParams
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	house, err := h.gameEngine.InitializeHouse(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Failed to initialize house", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"house": house})
}

func (h *AdminHandler) GetHouse(c *gin.Context) {
	house, err := h.gameEngine.GetHouse(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to get house", err)
		return
	}

	vault, err := h.gameEngine.TokenBalance(c.Request.Context(), house.HouseVault)
	if err != nil {
		respondError(c, "Failed to get house", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"house":       house,
		"vault":       vault,
		"vault_ui":    models.FormatAmount(vault),
		"max_bet_now": models.MaxBetFor(vault),
	})
}

func (h *AdminHandler) UpdateOracle(c *gin.Context) {
	var req OracleBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	house, err := h.gameEngine.UpdateOracleBinding(c.Request.Context(), req.Authority, req.OracleFunction, req.OracleSigner)
	if err != nil {
		respondError(c, "Failed to update oracle", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"house": house})
}

// InitializePlayer provisions the player and hands back a session token.
func (h *AdminHandler) InitializePlayer(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	player, err := h.gameEngine.InitializePlayer(c.Request.Context(), req.Authority)
	if err != nil {
		respondError(c, "Failed to initialize player", err)
		return
	}

	token, err := h.jwtService.GenerateToken(player.Authority)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Str("authority", player.Authority).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"player": gin.H{
			"address":            player.Address,
			"authority":          player.Authority,
			"escrow":             player.Escrow,
			"reward_address":     player.RewardAddress,
			"fee_wallet":         player.FeeWallet,
			"randomness_request": player.RandomnessRequest,
		},
		"token": token,
	})
}

func (h *AdminHandler) IssueToken(c *gin.Context) {
	authority := c.Param("authority")
	if _, err := h.gameEngine.GetPlayer(c.Request.Context(), authority); err != nil {
		respondError(c, "Failed to issue token", err)
		return
	}

	token, err := h.jwtService.GenerateToken(authority)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Str("authority", authority).Msg("failed to issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		respondInvalid(c, err)
		return
	}

	transfer, err := h.gameEngine.Deposit(c.Request.Context(), req.Authority, services.Asset(req.Asset), amount)
	if err != nil {
		respondError(c, "Failed to deposit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"transfer": transfer,
	})
}

func (h *AdminHandler) CloseAccount(c *gin.Context) {
	var req CloseAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	if err := h.gameEngine.CloseAccount(c.Request.Context(), req.Address, req.Signer); err != nil {
		respondError(c, "Failed to close account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
