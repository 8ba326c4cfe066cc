package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

var requestCounter uint64

// GenerateRequestID returns timestamp-counter-random, e.g. 20240101120000-000042-9f1c2a.
func GenerateRequestID() string {
	n := atomic.AddUint64(&requestCounter, 1)
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%06d-%s", time.Now().Format("20060102150405"), n, hex.EncodeToString(b))
}

// GinMiddleware tags the request context with a request id and logs the
// request lifecycle.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		Debug(ctx).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Msg("request started")

		c.Next()

		event := Info(ctx)
		if c.Writer.Status() >= 500 {
			event = Error(ctx)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// BackgroundContext is used by workers that are not driven by a request.
func BackgroundContext(component string) context.Context {
	ctx := WithRequestID(context.Background(), GenerateRequestID())
	return WithFields(ctx, map[string]interface{}{"component": component})
}
