package handler

import (
	"net/http"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/internal/service"
	"github.com/gin-gonic/gin"
)

// PostHandler handles post endpoints
type PostHandler struct {
	service service.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// ListPublishedPosts godoc
// @Summary      게시글 목록 조회
// @Description  발행된 게시글을 최신순으로 조회합니다
// @Tags         posts
// @Produce      json
// @Param        page      query  int  false  "페이지 번호 (기본값: 1)"  default(1)
// @Param        per_page  query  int  false  "페이지당 항목 수 (기본값: 20)"  default(20)
// @Success      200  {object}  common.V2Response{data=[]domain.PostListItem}
// @Router       /posts [get]
func (h *PostHandler) ListPublishedPosts(c *gin.Context) {
	page, perPage := parsePagination(c)
	items, meta, err := h.service.List(c.Request.Context(), page, perPage, domain.StatusPublished)
	if err != nil {
		respondError(c, err, "게시글 목록 조회 실패")
		return
	}
	common.V2SuccessWithMeta(c, items, meta)
}

// GetPublishedPost godoc
// @Summary      게시글 조회
// @Tags         posts
// @Produce      json
// @Param        slug  path      string  true  "게시글 슬러그"
// @Success      200   {object}  common.V2Response{data=domain.Post}
// @Failure      404   {object}  common.V2Response
// @Router       /posts/{slug} [get]
func (h *PostHandler) GetPublishedPost(c *gin.Context) {
	post, err := h.service.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "게시글 조회 실패")
		return
	}
	common.V2Success(c, post)
}

// ListPosts handles GET /api/v2/admin/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	page, perPage := parsePagination(c)
	items, meta, err := h.service.List(c.Request.Context(), page, perPage, c.Query("status"))
	if err != nil {
		respondError(c, err, "게시글 목록 조회 실패")
		return
	}
	common.V2SuccessWithMeta(c, items, meta)
}

// GetPost handles GET /api/v2/admin/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 게시글 ID")
	if !ok {
		return
	}
	post, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "게시글 조회 실패")
		return
	}
	common.V2Success(c, post)
}

// CreatePost godoc
// @Summary      게시글 작성
// @Description  저장과 함께 첫 리비전이 기록됩니다
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.PostRequest  true  "게시글"
// @Success      201      {object}  common.V2Response{data=domain.Post}
// @Failure      422      {object}  common.V2Response
// @Router       /admin/posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req domain.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	post, err := h.service.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err, "게시글 작성 실패")
		return
	}
	common.V2Created(c, post)
}

// UpdatePost godoc
// @Summary      게시글 수정
// @Description  제목, 본문, 요약이 바뀐 경우에만 리비전이 기록됩니다
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                 true  "게시글 ID"
// @Param        request  body      domain.PostRequest  true  "게시글"
// @Success      200      {object}  common.V2Response{data=domain.Post}
// @Failure      404      {object}  common.V2Response
// @Failure      422      {object}  common.V2Response
// @Router       /admin/posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 게시글 ID")
	if !ok {
		return
	}
	var req domain.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	post, err := h.service.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondError(c, err, "게시글 수정 실패")
		return
	}
	common.V2Success(c, post)
}

// DeletePost handles DELETE /api/v2/admin/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 게시글 ID")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err, "게시글 삭제 실패")
		return
	}
	common.V2Success(c, gin.H{"message": "삭제되었습니다"})
}
