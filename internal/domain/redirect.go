package domain

import (
	"time"
)

// Allowed redirect status codes
const (
	RedirectMovedPermanently  = 301
	RedirectFound             = 302
	RedirectTemporary         = 307
	RedirectPermanent         = 308
	DefaultRedirectStatusCode = RedirectMovedPermanently
)

// IsValidRedirectStatus reports whether code is one of 301, 302, 307, 308
func IsValidRedirectStatus(code int) bool {
	switch code {
	case RedirectMovedPermanently, RedirectFound, RedirectTemporary, RedirectPermanent:
		return true
	}
	return false
}

// RedirectRule maps a normalized source path to a target path or URL.
// Table: redirects
type RedirectRule struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SourcePath string     `gorm:"column:source_path;type:varchar(500);uniqueIndex" json:"source_path"`
	TargetPath string     `gorm:"column:target_path;type:varchar(1000)" json:"target_path"`
	StatusCode int        `gorm:"column:status_code" json:"status_code"`
	HitCount   uint64     `gorm:"column:hit_count;default:0" json:"hit_count"`
	LastHitAt  *time.Time `gorm:"column:last_hit_at" json:"last_hit_at,omitempty"`
	Active     bool       `gorm:"column:active;index" json:"active"`
	Note       string     `gorm:"column:note;type:varchar(255)" json:"note,omitempty"`
	CreatedBy  *string    `gorm:"column:created_by;type:varchar(64)" json:"created_by,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for RedirectRule
func (RedirectRule) TableName() string {
	return "redirects"
}

// CreateRedirectRequest is the editor form for a new redirect
type CreateRedirectRequest struct {
	SourcePath string `json:"source_path" binding:"required" validate:"redirect_path"`
	TargetPath string `json:"target_path" binding:"required" validate:"redirect_target"`
	StatusCode int    `json:"status_code" validate:"omitempty,redirect_status"`
	Active     *bool  `json:"active"`
	Note       string `json:"note" validate:"max=255"`
}

// UpdateRedirectRequest is the editor form for changing a redirect
type UpdateRedirectRequest struct {
	SourcePath *string `json:"source_path" validate:"omitempty,redirect_path"`
	TargetPath *string `json:"target_path" validate:"omitempty,redirect_target"`
	StatusCode *int    `json:"status_code" validate:"omitempty,redirect_status"`
	Active     *bool   `json:"active"`
	Note       *string `json:"note" validate:"omitempty,max=255"`
}

// CheckRedirectRequest asks whether a candidate rule would be accepted
type CheckRedirectRequest struct {
	ID         *uint64 `json:"id"`
	SourcePath string  `json:"source_path" binding:"required"`
	TargetPath string  `json:"target_path" binding:"required"`
}

// CheckRedirectResponse is the dry-run result of the validator
type CheckRedirectResponse struct {
	SourcePath   string `json:"source_path"`
	TargetPath   string `json:"target_path"`
	SelfRedirect bool   `json:"self_redirect"`
	Loop         bool   `json:"loop"`
	Valid        bool   `json:"valid"`
}

// RedirectTarget is the resolved destination of a request path
type RedirectTarget struct {
	RuleID     uint64
	Location   string
	StatusCode int
	Hops       int
}
