package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vrf-flip-backend/internal/oracle"
	"vrf-flip-backend/internal/services"
)

// OracleHandler receives results from an out-of-process oracle function.
// The endpoint is unauthenticated; the response token carries the proof.
type OracleHandler struct {
	gameEngine *services.GameEngine
}

func NewOracleHandler(gameEngine *services.GameEngine) *OracleHandler {
	return &OracleHandler{gameEngine: gameEngine}
}

func (h *OracleHandler) Settle(c *gin.Context) {
	var req oracle.SettleCallback
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := h.gameEngine.Settle(c.Request.Context(), req.Request, req.Response)
	if err != nil {
		respondError(c, "Failed to settle", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
