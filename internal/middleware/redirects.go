package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RedirectResolver resolves a request path against the active redirect rules
type RedirectResolver interface {
	Resolve(ctx context.Context, path string, maxHops int) (*domain.RedirectTarget, bool, error)
}

// HitSink receives served redirect hits
type HitSink interface {
	Record(ruleID uint64, at time.Time)
}

// RedirectConfig configures the redirect middleware
type RedirectConfig struct {
	Enabled bool
	MaxHops int
	// SkipPrefixes are never redirected (API, ops endpoints)
	SkipPrefixes []string
}

// context keys read by RequestLogger
const (
	redirectRuleIDKey = "redirect_rule_id"
	redirectHopsKey   = "redirect_hops"
)

// DefaultRedirectSkipPrefixes keeps the API and ops endpoints out of redirect lookups
var DefaultRedirectSkipPrefixes = []string{"/api/", "/health", "/metrics", "/swagger/"}

// Redirects serves stored redirect rules for GET and HEAD requests.
// Chains are followed up to cfg.MaxHops; the first rule's status code is used.
func Redirects(resolver RedirectResolver, hits HitSink, cfg RedirectConfig) gin.HandlerFunc {
	if cfg.SkipPrefixes == nil {
		cfg.SkipPrefixes = DefaultRedirectSkipPrefixes
	}

	return func(c *gin.Context) {
		if !cfg.Enabled || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		if hasAnyPrefix(path, cfg.SkipPrefixes) {
			c.Next()
			return
		}

		target, ok, err := resolver.Resolve(c.Request.Context(), path, cfg.MaxHops)
		if err != nil {
			// 리다이렉트 조회 실패로 요청 자체를 막지 않음
			logger.GetLogger().Warn().Err(err).Str("path", path).Msg("redirect lookup failed")
			c.Next()
			return
		}
		if !ok {
			c.Next()
			return
		}

		if hits != nil {
			hits.Record(target.RuleID, time.Now())
		}
		c.Set(redirectRuleIDKey, target.RuleID)
		c.Set(redirectHopsKey, target.Hops)
		c.Redirect(target.StatusCode, withQuery(target.Location, c.Request.URL.RawQuery))
		c.Abort()
	}
}

// withQuery appends the original query string to location
func withQuery(location, rawQuery string) string {
	if rawQuery == "" {
		return location
	}
	if strings.Contains(location, "?") {
		return location + "&" + rawQuery
	}
	return location + "?" + rawQuery
}
