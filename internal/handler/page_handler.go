package handler

import (
	"net/http"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/internal/service"
	"github.com/gin-gonic/gin"
)

// PageHandler handles standalone page endpoints
type PageHandler struct {
	service service.PageService
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(service service.PageService) *PageHandler {
	return &PageHandler{service: service}
}

// GetPublishedPage godoc
// @Summary      페이지 조회
// @Tags         pages
// @Produce      json
// @Param        slug  path      string  true  "페이지 슬러그"
// @Success      200   {object}  common.V2Response{data=domain.Page}
// @Failure      404   {object}  common.V2Response
// @Router       /pages/{slug} [get]
func (h *PageHandler) GetPublishedPage(c *gin.Context) {
	page, err := h.service.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "페이지 조회 실패")
		return
	}
	common.V2Success(c, page)
}

// ListPages handles GET /api/v2/admin/pages
func (h *PageHandler) ListPages(c *gin.Context) {
	page, perPage := parsePagination(c)
	pages, meta, err := h.service.List(c.Request.Context(), page, perPage)
	if err != nil {
		respondError(c, err, "페이지 목록 조회 실패")
		return
	}
	common.V2SuccessWithMeta(c, pages, meta)
}

// GetPage handles GET /api/v2/admin/pages/:id
func (h *PageHandler) GetPage(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 페이지 ID")
	if !ok {
		return
	}
	page, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "페이지 조회 실패")
		return
	}
	common.V2Success(c, page)
}

// CreatePage handles POST /api/v2/admin/pages
func (h *PageHandler) CreatePage(c *gin.Context) {
	var req domain.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	page, err := h.service.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err, "페이지 작성 실패")
		return
	}
	common.V2Created(c, page)
}

// UpdatePage handles PUT /api/v2/admin/pages/:id
func (h *PageHandler) UpdatePage(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 페이지 ID")
	if !ok {
		return
	}
	var req domain.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	page, err := h.service.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondError(c, err, "페이지 수정 실패")
		return
	}
	common.V2Success(c, page)
}

// DeletePage handles DELETE /api/v2/admin/pages/:id
func (h *PageHandler) DeletePage(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 페이지 ID")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err, "페이지 삭제 실패")
		return
	}
	common.V2Success(c, gin.H{"message": "삭제되었습니다"})
}
