package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vrf-flip-backend/internal/logger"
	"vrf-flip-backend/internal/services"
)

const (
	AuthorityKey     = "authority"
	SessionIDKey     = "session_id"
	AdminTokenHeader = "X-Admin-Token"
)

// RateLimiter is satisfied by services.RedisService.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error)
}

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			// browsers cannot set headers on a websocket upgrade
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(AuthorityKey, claims.Authority)
		c.Set(SessionIDKey, claims.SessionID)

		c.Next()
	}
}

// AdminMiddleware guards house and player provisioning.
func AdminMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn(c.Request.Context()).Str("path", c.Request.URL.Path).Msg("rejected admin request")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin token required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware limits bets per authority. A nil limiter disables it.
func RateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		authority := c.GetString(AuthorityKey)
		if limiter == nil || limit <= 0 || authority == "" {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), authority, "bet", limit, window)
		if err != nil {
			logger.Error(c.Request.Context()).Err(err).Str("authority", authority).Msg("rate limit check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+AdminTokenHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
