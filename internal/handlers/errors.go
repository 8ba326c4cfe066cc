package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vrf-flip-backend/internal/models"
)

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	ge, ok := models.AsGameError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ge.Kind {
	case models.KindValidation:
		if ge.Retryable {
			return http.StatusTooManyRequests
		}
		return http.StatusBadRequest
	case models.KindState:
		return http.StatusConflict
	case models.KindAuthenticity:
		return http.StatusForbidden
	case models.KindArithmetic, models.KindCustody:
		return http.StatusUnprocessableEntity
	case models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	status := StatusFor(err)
	body := gin.H{
		"error":   message,
		"details": err.Error(),
	}
	if ge, ok := models.AsGameError(err); ok {
		body["code"] = ge.Code
		body["retryable"] = ge.Retryable
	}
	if status == http.StatusInternalServerError {
		body["details"] = "internal error"
	}
	c.JSON(status, body)
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}
