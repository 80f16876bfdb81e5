package routes

import (
	"github.com/damoang/angple-blog/internal/config"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/handler"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups the API handlers mounted by Setup
type Handlers struct {
	Post     *handler.PostHandler
	Page     *handler.PageHandler
	Redirect *handler.RedirectHandler
	Revision *handler.RevisionHandler
}

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	h Handlers,
	jwtManager *jwt.Manager,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	publicLimit := middleware.DefaultRateLimitConfig()
	publicLimit.RequestsPerMinute = cfg.RateLimit.PublicPerMinute

	api := router.Group("/api/v2", middleware.RateLimit(redisClient, publicLimit))

	// 공개 API
	api.GET("/posts", h.Post.ListPublishedPosts)
	api.GET("/posts/:slug", h.Post.GetPublishedPost)
	api.GET("/pages/:slug", h.Page.GetPublishedPage)

	adminLimit := middleware.DefaultRateLimitConfig()
	adminLimit.RequestsPerMinute = cfg.RateLimit.AdminPerMinute
	adminLimit.KeyPrefix += "admin:"

	admin := router.Group("/api/v2/admin",
		middleware.JWTAuth(jwtManager),
		middleware.RequireAdmin(),
		middleware.RateLimitPerUser(redisClient, adminLimit),
	)

	// 리다이렉트 관리
	redirects := admin.Group("/redirects")
	redirects.GET("", h.Redirect.ListRedirects)
	redirects.POST("", h.Redirect.CreateRedirect)
	redirects.POST("/check", h.Redirect.CheckRedirect)
	redirects.GET("/:id", h.Redirect.GetRedirect)
	redirects.PUT("/:id", h.Redirect.UpdateRedirect)
	redirects.DELETE("/:id", h.Redirect.DeleteRedirect)
	redirects.POST("/:id/toggle", h.Redirect.ToggleRedirect)

	// 게시글 관리
	posts := admin.Group("/posts")
	posts.GET("", h.Post.ListPosts)
	posts.POST("", h.Post.CreatePost)
	posts.GET("/:id", h.Post.GetPost)
	posts.PUT("/:id", h.Post.UpdatePost)
	posts.DELETE("/:id", h.Post.DeletePost)
	posts.GET("/:id/revisions", h.Revision.ListRevisions(domain.EntityPost))
	posts.POST("/:id/revisions", h.Revision.CreateRevision(domain.EntityPost))

	// 페이지 관리
	pages := admin.Group("/pages")
	pages.GET("", h.Page.ListPages)
	pages.POST("", h.Page.CreatePage)
	pages.GET("/:id", h.Page.GetPage)
	pages.PUT("/:id", h.Page.UpdatePage)
	pages.DELETE("/:id", h.Page.DeletePage)
	pages.GET("/:id/revisions", h.Revision.ListRevisions(domain.EntityPage))
	pages.POST("/:id/revisions", h.Revision.CreateRevision(domain.EntityPage))

	// 리비전
	revisions := admin.Group("/revisions")
	revisions.POST("/bulk-delete", h.Revision.BulkDeleteRevisions)
	revisions.GET("/:id", h.Revision.GetRevision)
	revisions.DELETE("/:id", h.Revision.DeleteRevision)
	revisions.GET("/:id/diff", h.Revision.DiffRevision)
	revisions.GET("/:id/compare/:other", h.Revision.CompareRevisions)
	revisions.POST("/:id/restore", h.Revision.RestoreRevision)
	revisions.POST("/:id/protect", h.Revision.ProtectRevision)
}
