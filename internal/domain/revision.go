package domain

import (
	"strconv"
	"time"
)

// EntityKind names a revisable entity type
type EntityKind string

const (
	EntityPost EntityKind = "post"
	EntityPage EntityKind = "page"
)

// OwnerRef identifies the entity a revision belongs to
type OwnerRef struct {
	Kind EntityKind `json:"kind"`
	ID   uint64     `json:"id"`
}

func (o OwnerRef) String() string {
	return string(o.Kind) + ":" + strconv.FormatUint(o.ID, 10)
}

// Metadata keys restored alongside the tracked fields
const (
	MetaSlug          = "slug"
	MetaFeaturedImage = "featured_image_reference"
	MetaCategoryIDs   = "category_ids"
	MetaTagIDs        = "tag_ids"
	MetaStatus        = "status"
)

// RevisionFields are the tracked fields of a revisable entity
type RevisionFields struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// Equal compares tracked fields exactly
func (f RevisionFields) Equal(other RevisionFields) bool {
	return f.Title == other.Title && f.Content == other.Content && f.Excerpt == other.Excerpt
}

// RevisionState is the current state of an owner as seen by the revision engine
type RevisionState struct {
	Fields   RevisionFields
	Metadata RevisionMetadata
}

// RevisionMetadata holds auxiliary restorable state.
// Values round-trip through JSON, so numbers come back as float64.
type RevisionMetadata map[string]interface{}

// String returns a string value for key
func (m RevisionMetadata) String(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IDs returns an id list for key. ok is false when the key is absent.
func (m RevisionMetadata) IDs(key string) ([]uint64, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}

	var ids []uint64
	switch list := v.(type) {
	case []uint64:
		return append([]uint64{}, list...), true
	case []interface{}:
		for _, item := range list {
			if id, ok := toUint64(item); ok {
				ids = append(ids, id)
			}
		}
	default:
		return nil, false
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, true
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case string:
		id, err := strconv.ParseUint(n, 10, 64)
		return id, err == nil
	}
	return 0, false
}

// Revision is a point-in-time snapshot of an entity's editable fields.
// Table: revisions
type Revision struct {
	ID             uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OwnerType      EntityKind       `gorm:"column:owner_type;type:varchar(32);uniqueIndex:uk_revisions_owner_number,priority:1" json:"owner_type"`
	OwnerID        uint64           `gorm:"column:owner_id;uniqueIndex:uk_revisions_owner_number,priority:2" json:"owner_id"`
	RevisionNumber uint             `gorm:"column:revision_number;uniqueIndex:uk_revisions_owner_number,priority:3" json:"revision_number"`
	Title          string           `gorm:"column:title;type:varchar(255)" json:"title"`
	Content        string           `gorm:"column:content;type:mediumtext" json:"content"`
	Excerpt        string           `gorm:"column:excerpt;type:text" json:"excerpt"`
	Metadata       RevisionMetadata `gorm:"column:metadata;type:json;serializer:json" json:"metadata"`
	IsAutosave     bool             `gorm:"column:is_autosave" json:"is_autosave"`
	IsProtected    bool             `gorm:"column:is_protected" json:"is_protected"`
	CreatedBy      *string          `gorm:"column:created_by;type:varchar(64)" json:"created_by,omitempty"`
	CreatedByName  string           `gorm:"column:created_by_name;type:varchar(100)" json:"created_by_name,omitempty"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Revision
func (Revision) TableName() string {
	return "revisions"
}

// Owner returns the owner reference of r
func (r *Revision) Owner() OwnerRef {
	return OwnerRef{Kind: r.OwnerType, ID: r.OwnerID}
}

// Fields returns the tracked fields stored in r
func (r *Revision) Fields() RevisionFields {
	return RevisionFields{Title: r.Title, Content: r.Content, Excerpt: r.Excerpt}
}

// RevisionCounter is the per-owner high-water mark of revision numbers.
// Deleting revisions never lowers it, so numbers are not reused.
// Table: revision_counters
type RevisionCounter struct {
	OwnerType  EntityKind `gorm:"column:owner_type;type:varchar(32);primaryKey"`
	OwnerID    uint64     `gorm:"column:owner_id;primaryKey;autoIncrement:false"`
	LastNumber uint       `gorm:"column:last_number;not null"`
}

// TableName specifies the table name for RevisionCounter
func (RevisionCounter) TableName() string {
	return "revision_counters"
}

// RevisionListItem is a revision without its body
type RevisionListItem struct {
	ID             uint64    `json:"id"`
	RevisionNumber uint      `json:"revision_number"`
	Title          string    `json:"title"`
	IsAutosave     bool      `json:"is_autosave"`
	IsProtected    bool      `json:"is_protected"`
	CreatedBy      *string   `json:"created_by,omitempty"`
	CreatedByName  string    `json:"created_by_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToListItem converts r to a list item
func (r *Revision) ToListItem() RevisionListItem {
	return RevisionListItem{
		ID:             r.ID,
		RevisionNumber: r.RevisionNumber,
		Title:          r.Title,
		IsAutosave:     r.IsAutosave,
		IsProtected:    r.IsProtected,
		CreatedBy:      r.CreatedBy,
		CreatedByName:  r.CreatedByName,
		CreatedAt:      r.CreatedAt,
	}
}

// BulkDeleteRevisionsRequest lists revisions to delete
type BulkDeleteRevisionsRequest struct {
	IDs []uint64 `json:"ids" binding:"required,min=1"`
}

// BulkDeleteResult reports a partial-success bulk delete
type BulkDeleteResult struct {
	Deleted int    `json:"deleted"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

// ProtectRevisionRequest toggles deletion protection
type ProtectRevisionRequest struct {
	Protected bool `json:"protected"`
}

// RestoreResult reports a restore and the backup snapshot taken before it
type RestoreResult struct {
	Restored RevisionListItem  `json:"restored"`
	Backup   *RevisionListItem `json:"backup,omitempty"`
}
