package handler

import (
	"net/http"
	"testing"

	"github.com/damoang/angple-blog/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectHandler_Create(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/admin/redirects", gin.H{"source_path": "/Old-Post/", "target_path": "/new-post"})
	require.Equal(t, http.StatusCreated, code)

	var rule domain.RedirectRule
	decode(t, env, &rule)
	assert.Equal(t, "/old-post", rule.SourcePath)
	assert.Equal(t, domain.DefaultRedirectStatusCode, rule.StatusCode)
	assert.True(t, rule.Active)
	require.NotNil(t, rule.CreatedBy)
	assert.Equal(t, "admin", *rule.CreatedBy)
}

func TestRedirectHandler_RejectsWithFieldErrors(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/admin/redirects", gin.H{"source_path": "/old", "target_path": "/new"})
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"self redirect", gin.H{"source_path": "/x", "target_path": "/X/"}, "target_path"},
		{"loop", gin.H{"source_path": "/new", "target_path": "/old"}, "target_path"},
		{"taken source", gin.H{"source_path": "/OLD", "target_path": "/other"}, "source_path"},
		{"bad status", gin.H{"source_path": "/a", "target_path": "/b", "status_code": 303}, "status_code"},
		{"absolute source", gin.H{"source_path": "https://example.com/a", "target_path": "/b"}, "source_path"},
		{"bad target scheme", gin.H{"source_path": "/a", "target_path": "ftp://example.com/b"}, "target_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/admin/redirects", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
			assert.False(t, env.Success)
			assert.Equal(t, []string{tt.field}, fieldNames(env))
		})
	}
}

func TestRedirectHandler_MissingField(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodPost, "/admin/redirects", gin.H{"source_path": "/a"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestRedirectHandler_Check(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/admin/redirects", gin.H{"source_path": "/old", "target_path": "/new"})

	code, env := s.do(t, http.MethodPost, "/admin/redirects/check", gin.H{"source_path": "/new", "target_path": "/old"})
	require.Equal(t, http.StatusOK, code)

	var resp domain.CheckRedirectResponse
	decode(t, env, &resp)
	assert.True(t, resp.Loop)
	assert.False(t, resp.Valid)

	// check never persists
	_, env = s.do(t, http.MethodGet, "/admin/redirects", nil)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)
}

func TestRedirectHandler_UpdateToggleDelete(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(t, http.MethodPost, "/admin/redirects", gin.H{"source_path": "/a", "target_path": "/b"})
	var rule domain.RedirectRule
	decode(t, env, &rule)
	base := "/admin/redirects/" + uintPath(rule.ID)

	code, env := s.do(t, http.MethodPut, base, gin.H{"target_path": "/c", "status_code": 308})
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &rule)
	assert.Equal(t, "/c", rule.TargetPath)
	assert.Equal(t, 308, rule.StatusCode)

	code, env = s.do(t, http.MethodPost, base+"/toggle", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &rule)
	assert.False(t, rule.Active)

	code, _ = s.do(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRedirectHandler_BadID(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/admin/redirects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
