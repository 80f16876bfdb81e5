package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/internal/service"
	"github.com/damoang/angple-blog/internal/testutil"
	"github.com/damoang/angple-blog/pkg/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *common.V2Meta  `json:"meta"`
	Error   *common.V2Error `json:"error"`
}

type testServer struct {
	router *gin.Engine
}

// newTestServer mounts the admin handlers on an engine that authenticates
// every request as an administrator.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	bus := event.NewBus()
	posts := repository.NewPostRepository(db)
	pages := repository.NewPageRepository(db)

	registry := service.NewOwnerRegistry()
	registry.Register(domain.EntityPost, service.NewPostRevisionStore(posts))
	registry.Register(domain.EntityPage, service.NewPageRevisionStore(pages))
	revisions := service.NewRevisionService(repository.NewRevisionRepository(db), registry, bus, service.DefaultRevisionOptions())

	redirectH := NewRedirectHandler(service.NewRedirectService(repository.NewRedirectRepository(db), cache.NewService(nil), bus, 0))
	revisionH := NewRevisionHandler(revisions)
	postH := NewPostHandler(service.NewPostService(posts, revisions, bus))
	pageH := NewPageHandler(service.NewPageService(pages, revisions, bus))

	r := gin.New()
	r.GET("/posts/:slug", postH.GetPublishedPost)
	r.GET("/pages/:slug", pageH.GetPublishedPage)

	admin := r.Group("/admin", func(c *gin.Context) {
		c.Set("userID", "admin")
		c.Set("nickname", "관리자")
		c.Set("level", domain.AdminLevel)
		c.Next()
	})
	admin.GET("/redirects", redirectH.ListRedirects)
	admin.POST("/redirects", redirectH.CreateRedirect)
	admin.POST("/redirects/check", redirectH.CheckRedirect)
	admin.GET("/redirects/:id", redirectH.GetRedirect)
	admin.PUT("/redirects/:id", redirectH.UpdateRedirect)
	admin.DELETE("/redirects/:id", redirectH.DeleteRedirect)
	admin.POST("/redirects/:id/toggle", redirectH.ToggleRedirect)

	admin.POST("/posts", postH.CreatePost)
	admin.GET("/posts", postH.ListPosts)
	admin.PUT("/posts/:id", postH.UpdatePost)
	admin.DELETE("/posts/:id", postH.DeletePost)
	admin.GET("/posts/:id/revisions", revisionH.ListRevisions(domain.EntityPost))
	admin.POST("/posts/:id/revisions", revisionH.CreateRevision(domain.EntityPost))
	admin.POST("/pages", pageH.CreatePage)

	admin.POST("/revisions/bulk-delete", revisionH.BulkDeleteRevisions)
	admin.GET("/revisions/:id", revisionH.GetRevision)
	admin.DELETE("/revisions/:id", revisionH.DeleteRevision)
	admin.GET("/revisions/:id/diff", revisionH.DiffRevision)
	admin.GET("/revisions/:id/compare/:other", revisionH.CompareRevisions)
	admin.POST("/revisions/:id/restore", revisionH.RestoreRevision)
	admin.POST("/revisions/:id/protect", revisionH.ProtectRevision)

	return &testServer{router: r}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func fieldNames(env envelope) []string {
	if env.Error == nil {
		return nil
	}
	names := make([]string, len(env.Error.Fields))
	for i, f := range env.Error.Fields {
		names[i] = f.Field
	}
	return names
}

func (s *testServer) createPost(t *testing.T, title, content string) domain.Post {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/admin/posts", gin.H{"title": title, "content": content, "status": "published"})
	require.Equal(t, http.StatusCreated, code)
	var post domain.Post
	decode(t, env, &post)
	return post
}
