package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/pkg/ginutil"
	"github.com/damoang/angple-blog/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// editorValidator checks the `validate` tags of editor forms after gin binding
var editorValidator = newEditorValidator()

func newEditorValidator() *validator.Validate {
	v := validator.New()
	// 필드명 대신 json 이름으로 에러 보고
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("redirect_path", func(fl validator.FieldLevel) bool {
		return isRedirectPath(fl.Field().String())
	})
	_ = v.RegisterValidation("redirect_target", func(fl validator.FieldLevel) bool {
		target := fl.Field().String()
		return common.IsAbsoluteURL(target) || isRedirectPath(target)
	})
	_ = v.RegisterValidation("redirect_status", func(fl validator.FieldLevel) bool {
		return domain.IsValidRedirectStatus(int(fl.Field().Int()))
	})
	return v
}

// isRedirectPath accepts a site-relative path without scheme or whitespace
func isRedirectPath(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "://") || strings.HasPrefix(p, "//") {
		return false
	}
	return !strings.ContainsAny(p, " \t\r\n")
}

var validationMessages = map[string]string{
	"required":        "필수 항목입니다",
	"max":             "너무 깁니다",
	"redirect_path":   "사이트 내부 경로여야 합니다 (예: /old-post)",
	"redirect_target": "경로 또는 http(s) URL이어야 합니다",
	"redirect_status": "301, 302, 307, 308 중 하나여야 합니다",
}

// validateForm runs editorValidator and writes a 422 on failure
func validateForm(c *gin.Context, form interface{}) bool {
	err := editorValidator.Struct(form)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
		return false
	}
	fields := make([]common.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		fields = append(fields, common.FieldError{Field: fe.Field(), Message: msg})
	}
	common.V2FieldErrors(c, "입력값이 올바르지 않습니다", fields)
	return false
}

// respondError maps a service error to an HTTP status
func respondError(c *gin.Context, err error, fallback string) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, common.ErrValidationRejected):
		common.V2ErrorResponse(c, http.StatusUnprocessableEntity, "입력값이 올바르지 않습니다", err)
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrRedirectNotFound),
		errors.Is(err, common.ErrPostNotFound),
		errors.Is(err, common.ErrPageNotFound),
		errors.Is(err, common.ErrRevisionNotFound):
		common.V2ErrorResponse(c, http.StatusNotFound, "찾을 수 없습니다", err)
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrUnknownOwnerKind):
		common.V2ErrorResponse(c, http.StatusBadRequest, "잘못된 요청", err)
	case errors.Is(err, common.ErrProtectedRevision):
		common.V2ErrorResponse(c, http.StatusConflict, "보호된 리비전은 삭제할 수 없습니다", err)
	case errors.Is(err, common.ErrRevisionConflict):
		common.V2ErrorResponse(c, http.StatusConflict, "리비전 번호 충돌, 다시 시도해 주세요", err)
	case errors.Is(err, common.ErrRedirectBusy):
		common.V2ErrorResponse(c, http.StatusLocked, "다른 리다이렉트 변경이 진행 중입니다", err)
	default:
		// ErrOwnerNotFound 포함: 호출 측 계약 위반
		logger.GetLogger().Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg(fallback)
		common.V2ErrorResponse(c, http.StatusInternalServerError, fallback, err)
	}
}

// parseID reads a uint64 path parameter
func parseID(c *gin.Context, name, message string) (uint64, bool) {
	id, err := ginutil.ParamUint64(c, name)
	if err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, message, err)
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (int, int) {
	page := ginutil.QueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := ginutil.QueryInt(c, "per_page", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
