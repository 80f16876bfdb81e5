package handler

import (
	"net/http"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/internal/service"
	"github.com/gin-gonic/gin"
)

// RevisionHandler handles revision history endpoints for posts and pages
type RevisionHandler struct {
	service service.RevisionService
}

// NewRevisionHandler creates a new RevisionHandler
func NewRevisionHandler(service service.RevisionService) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// ListRevisions returns the handler for GET /api/v2/admin/{kind}s/:id/revisions
//
// @Summary      리비전 목록 조회
// @Description  최신 리비전부터 본문 없이 조회합니다
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id        path   int  true   "게시글/페이지 ID"
// @Param        page      query  int  false  "페이지 번호"  default(1)
// @Param        per_page  query  int  false  "페이지당 항목 수"  default(20)
// @Success      200  {object}  common.V2Response{data=[]domain.RevisionListItem}
// @Router       /admin/posts/{id}/revisions [get]
// @Router       /admin/pages/{id}/revisions [get]
func (h *RevisionHandler) ListRevisions(kind domain.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id", "잘못된 ID")
		if !ok {
			return
		}
		page, perPage := parsePagination(c)
		owner := domain.OwnerRef{Kind: kind, ID: id}

		items, meta, err := h.service.List(c.Request.Context(), owner, page, perPage)
		if err != nil {
			respondError(c, err, "리비전 목록 조회 실패")
			return
		}
		common.V2SuccessWithMeta(c, items, meta)
	}
}

// CreateRevision returns the handler for POST /api/v2/admin/{kind}s/:id/revisions
//
// @Summary      지금 리비전 만들기
// @Description  변경 여부와 관계없이 현재 상태를 리비전으로 저장합니다
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "게시글/페이지 ID"
// @Success      201  {object}  common.V2Response{data=domain.RevisionListItem}
// @Failure      404  {object}  common.V2Response
// @Router       /admin/posts/{id}/revisions [post]
// @Router       /admin/pages/{id}/revisions [post]
func (h *RevisionHandler) CreateRevision(kind domain.EntityKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id", "잘못된 ID")
		if !ok {
			return
		}
		owner := domain.OwnerRef{Kind: kind, ID: id}

		rev, err := h.service.CreateRevisionNow(c.Request.Context(), middleware.GetActor(c), owner)
		if err != nil {
			respondError(c, err, "리비전 생성 실패")
			return
		}
		common.V2Created(c, rev.ToListItem())
	}
}

// GetRevision godoc
// @Summary      리비전 상세 조회
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "리비전 ID"
// @Success      200  {object}  common.V2Response{data=domain.Revision}
// @Failure      404  {object}  common.V2Response
// @Router       /admin/revisions/{id} [get]
func (h *RevisionHandler) GetRevision(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	rev, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "리비전 조회 실패")
		return
	}
	common.V2Success(c, rev)
}

// DiffRevision godoc
// @Summary      현재 상태와 비교
// @Description  제목과 요약은 단어 단위, 본문은 줄 단위로 비교합니다
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "리비전 ID"
// @Success      200  {object}  common.V2Response{data=domain.DiffResponse}
// @Router       /admin/revisions/{id}/diff [get]
func (h *RevisionHandler) DiffRevision(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	diff, err := h.service.DiffFromCurrent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "리비전 비교 실패")
		return
	}
	common.V2Success(c, diff)
}

// CompareRevisions handles GET /api/v2/admin/revisions/:id/compare/:other
func (h *RevisionHandler) CompareRevisions(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	other, ok := parseID(c, "other", "잘못된 리비전 ID")
	if !ok {
		return
	}
	diff, err := h.service.Compare(c.Request.Context(), id, other)
	if err != nil {
		respondError(c, err, "리비전 비교 실패")
		return
	}
	common.V2Success(c, diff)
}

// RestoreRevision godoc
// @Summary      리비전 복원
// @Description  복원 전 현재 상태를 백업 리비전으로 저장한 뒤 내용을 되돌립니다
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "리비전 ID"
// @Success      200  {object}  common.V2Response{data=domain.RestoreResult}
// @Failure      404  {object}  common.V2Response
// @Router       /admin/revisions/{id}/restore [post]
func (h *RevisionHandler) RestoreRevision(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	result, err := h.service.RestoreTo(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err, "리비전 복원 실패")
		return
	}
	common.V2Success(c, result)
}

// ProtectRevision handles POST /api/v2/admin/revisions/:id/protect
func (h *RevisionHandler) ProtectRevision(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	var req domain.ProtectRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	rev, err := h.service.SetProtected(c.Request.Context(), middleware.GetActor(c), id, req.Protected)
	if err != nil {
		respondError(c, err, "리비전 보호 설정 실패")
		return
	}
	common.V2Success(c, rev.ToListItem())
}

// DeleteRevision godoc
// @Summary      리비전 삭제
// @Tags         revisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "리비전 ID"
// @Success      200  {object}  common.V2Response
// @Failure      409  {object}  common.V2Response  "보호된 리비전"
// @Router       /admin/revisions/{id} [delete]
func (h *RevisionHandler) DeleteRevision(c *gin.Context) {
	id, ok := parseID(c, "id", "잘못된 리비전 ID")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err, "리비전 삭제 실패")
		return
	}
	common.V2Success(c, gin.H{"message": "삭제되었습니다"})
}

// BulkDeleteRevisions godoc
// @Summary      리비전 일괄 삭제
// @Description  보호된 리비전은 건너뛰고 삭제된 개수를 알려줍니다
// @Tags         revisions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.BulkDeleteRevisionsRequest  true  "삭제할 리비전 ID 목록"
// @Success      200      {object}  common.V2Response{data=domain.BulkDeleteResult}
// @Router       /admin/revisions/bulk-delete [post]
func (h *RevisionHandler) BulkDeleteRevisions(c *gin.Context) {
	var req domain.BulkDeleteRevisionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return
	}
	result, err := h.service.BulkDelete(c.Request.Context(), middleware.GetActor(c), req.IDs)
	if err != nil {
		respondError(c, err, "리비전 일괄 삭제 실패")
		return
	}
	common.V2Success(c, result)
}
