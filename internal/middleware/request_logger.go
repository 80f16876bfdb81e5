package middleware

import (
	"time"

	"github.com/damoang/angple-blog/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestLogger logs every request once the response is written.
// Redirects served by the Redirects middleware carry the rule id and hop count.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		event := levelFor(status)
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size())

		if userID := GetUserID(c); userID != "" {
			event.Str("user_id", userID)
		}
		if ruleID, ok := c.Get(redirectRuleIDKey); ok {
			event.Interface("redirect_rule_id", ruleID).
				Int("redirect_hops", c.GetInt(redirectHopsKey)).
				Str("location", c.Writer.Header().Get("Location"))
			event.Msg("redirect")
			return
		}
		event.Msg("request")
	}
}

func levelFor(status int) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.GetLogger().Error()
	case status >= 400:
		return logger.GetLogger().Warn()
	default:
		return logger.GetLogger().Info()
	}
}
