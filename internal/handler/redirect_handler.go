package handler

import (
	"net/http"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/internal/service"
	"github.com/gin-gonic/gin"
)

// RedirectHandler handles admin redirect rule endpoints
type RedirectHandler struct {
	service service.RedirectService
}

// NewRedirectHandler creates a new RedirectHandler
func NewRedirectHandler(service service.RedirectService) *RedirectHandler {
	return &RedirectHandler{service: service}
}

// ListRedirects godoc
// @Summary      리다이렉트 목록 조회
// @Description  등록된 리다이렉트 규칙을 페이지네이션하여 조회합니다
// @Tags         redirects
// @Produce      json
// @Security     BearerAuth
// @Param        page      query  int     false  "페이지 번호"  default(1)
// @Param        per_page  query  int     false  "페이지당 항목 수"  default(20)
// @Param        keyword   query  string  false  "경로 검색어"
// @Success      200  {object}  common.V2Response{data=[]domain.RedirectRule}
// @Router       /admin/redirects [get]
func (h *RedirectHandler) ListRedirects(c *gin.Context) {
	page, perPage := parsePagination(c)
	rules, meta, err := h.service.List(c.Request.Context(), page, perPage, c.Query("keyword"))
	if err != nil {
		respondError(c, err, "리다이렉트 목록 조회 실패")
		return
	}
	common.V2SuccessWithMeta(c, rules, meta)
}

// GetRedirect godoc
// @Summary      리다이렉트 상세 조회
// @Tags         redirects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "리다이렉트 ID"
// @Success      200  {object}  common.V2Response{data=domain.RedirectRule}
// @Failure      404  {object}  common.V2Response
// @Router       /admin/redirects/{id} [get]
func (h *RedirectHandler) GetRedirect(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리다이렉트 ID")
	if !ok {
		return
	}
	rule, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "리다이렉트 조회 실패")
		return
	}
	common.V2Success(c, rule)
}

// CreateRedirect godoc
// @Summary      리다이렉트 생성
// @Description  자기 자신으로의 리다이렉트나 순환을 만드는 규칙은 거부됩니다
// @Tags         redirects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CreateRedirectRequest  true  "리다이렉트 규칙"
// @Success      201      {object}  common.V2Response{data=domain.RedirectRule}
// @Failure      422      {object}  common.V2Response
// @Failure      423      {object}  common.V2Response
// @Router       /admin/redirects [post]
func (h *RedirectHandler) CreateRedirect(c *gin.Context) {
	var req domain.CreateRedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	if !validateForm(c, &req) {
		return
	}

	rule, err := h.service.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		respondError(c, err, "리다이렉트 생성 실패")
		return
	}
	common.V2Created(c, rule)
}

// UpdateRedirect godoc
// @Summary      리다이렉트 수정
// @Tags         redirects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                           true  "리다이렉트 ID"
// @Param        request  body      domain.UpdateRedirectRequest  true  "변경할 항목"
// @Success      200      {object}  common.V2Response{data=domain.RedirectRule}
// @Failure      422      {object}  common.V2Response
// @Router       /admin/redirects/{id} [put]
func (h *RedirectHandler) UpdateRedirect(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리다이렉트 ID")
	if !ok {
		return
	}
	var req domain.UpdateRedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	if !validateForm(c, &req) {
		return
	}

	rule, err := h.service.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		respondError(c, err, "리다이렉트 수정 실패")
		return
	}
	common.V2Success(c, rule)
}

// DeleteRedirect handles DELETE /api/v2/admin/redirects/:id
func (h *RedirectHandler) DeleteRedirect(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리다이렉트 ID")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err, "리다이렉트 삭제 실패")
		return
	}
	common.V2Success(c, gin.H{"message": "삭제되었습니다"})
}

// ToggleRedirect handles POST /api/v2/admin/redirects/:id/toggle
func (h *RedirectHandler) ToggleRedirect(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리다이렉트 ID")
	if !ok {
		return
	}
	rule, err := h.service.Toggle(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err, "리다이렉트 상태 변경 실패")
		return
	}
	common.V2Success(c, rule)
}

// CheckRedirect godoc
// @Summary      리다이렉트 사전 검사
// @Description  저장하지 않고 자기 참조와 순환 여부만 검사합니다
// @Tags         redirects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CheckRedirectRequest  true  "검사할 규칙"
// @Success      200      {object}  common.V2Response{data=domain.CheckRedirectResponse}
// @Router       /admin/redirects/check [post]
func (h *RedirectHandler) CheckRedirect(c *gin.Context) {
	var req domain.CheckRedirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	resp, err := h.service.Check(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "리다이렉트 검사 실패")
		return
	}
	common.V2Success(c, resp)
}
