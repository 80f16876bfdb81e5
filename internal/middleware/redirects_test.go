package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/damoang/angple-blog/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	targets map[string]*domain.RedirectTarget
	err     error
	calls   int
}

func (s *stubResolver) Resolve(_ context.Context, path string, _ int) (*domain.RedirectTarget, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	t, ok := s.targets[path]
	return t, ok, nil
}

type recordedHits struct {
	mu  sync.Mutex
	ids []uint64
}

func (r *recordedHits) Record(ruleID uint64, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ruleID)
}

func newRedirectRouter(resolver RedirectResolver, hits HitSink, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Redirects(resolver, hits, RedirectConfig{Enabled: enabled, MaxHops: 5}))
	r.GET("/api/v2/posts", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/old", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRedirects_Serves(t *testing.T) {
	resolver := &stubResolver{targets: map[string]*domain.RedirectTarget{
		"/old": {RuleID: 7, Location: "/new", StatusCode: http.StatusMovedPermanently, Hops: 1},
	}}
	hits := &recordedHits{}
	r := newRedirectRouter(resolver, hits, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/old?utm=mail", nil))

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/new?utm=mail", w.Header().Get("Location"))
	assert.Equal(t, []uint64{7}, hits.ids)
}

func TestRedirects_HeadRequest(t *testing.T) {
	resolver := &stubResolver{targets: map[string]*domain.RedirectTarget{
		"/old": {RuleID: 1, Location: "https://example.com/x", StatusCode: http.StatusFound},
	}}
	r := newRedirectRouter(resolver, nil, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/old", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/x", w.Header().Get("Location"))
}

func TestRedirects_PassThrough(t *testing.T) {
	resolver := &stubResolver{targets: map[string]*domain.RedirectTarget{
		"/old":          {RuleID: 1, Location: "/new", StatusCode: http.StatusMovedPermanently},
		"/api/v2/posts": {RuleID: 2, Location: "/elsewhere", StatusCode: http.StatusMovedPermanently},
	}}

	t.Run("post is not redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRedirectRouter(resolver, nil, true).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/old", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("api prefix skipped", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRedirectRouter(resolver, nil, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/posts", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
	t.Run("disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRedirectRouter(resolver, nil, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/old", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRedirectRouter(resolver, nil, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRedirects_LookupErrorFailsOpen(t *testing.T) {
	resolver := &stubResolver{err: errors.New("db down")}
	w := httptest.NewRecorder()
	newRedirectRouter(resolver, nil, true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/old", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, resolver.calls)
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "/new", withQuery("/new", ""))
	assert.Equal(t, "/new?a=1", withQuery("/new", "a=1"))
	assert.Equal(t, "/new?x=2&a=1", withQuery("/new?x=2", "a=1"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/v2/posts/:slug", normalizePath("/api/v2/posts/:slug", 200))
	assert.Equal(t, "redirect", normalizePath("", http.StatusMovedPermanently))
	assert.Equal(t, "unmatched", normalizePath("", http.StatusNotFound))
}
