package domain

import (
	"time"
)

// Content statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
	StatusArchived  = "archived"
)

// Post is a blog article.
// Table: posts
type Post struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title         string     `gorm:"column:title;type:varchar(255)" json:"title"`
	Slug          string     `gorm:"column:slug;type:varchar(191);uniqueIndex" json:"slug"`
	Content       string     `gorm:"column:content;type:mediumtext" json:"content"`
	Excerpt       string     `gorm:"column:excerpt;type:text" json:"excerpt"`
	Status        string     `gorm:"column:status;type:varchar(20);index" json:"status"`
	FeaturedImage *string    `gorm:"column:featured_image;type:varchar(500)" json:"featured_image,omitempty"`
	AuthorID      *string    `gorm:"column:author_id;type:varchar(64)" json:"author_id,omitempty"`
	PublishedAt   *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	Categories    []Category `gorm:"many2many:post_categories;" json:"categories,omitempty"`
	Tags          []Tag      `gorm:"many2many:post_tags;" json:"tags,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// RevisionFields returns the tracked fields of p
func (p *Post) RevisionFields() RevisionFields {
	return RevisionFields{Title: p.Title, Content: p.Content, Excerpt: p.Excerpt}
}

// RevisionMetadata returns the restorable auxiliary state of p
func (p *Post) RevisionMetadata() RevisionMetadata {
	meta := RevisionMetadata{
		MetaSlug:   p.Slug,
		MetaStatus: p.Status,
	}
	if p.FeaturedImage != nil {
		meta[MetaFeaturedImage] = *p.FeaturedImage
	}
	categoryIDs := make([]uint64, 0, len(p.Categories))
	for _, c := range p.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}
	tagIDs := make([]uint64, 0, len(p.Tags))
	for _, t := range p.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	meta[MetaCategoryIDs] = categoryIDs
	meta[MetaTagIDs] = tagIDs
	return meta
}

// PostRequest is the editor form for creating or updating a post
type PostRequest struct {
	Title         string   `json:"title" binding:"required,max=255"`
	Slug          string   `json:"slug" binding:"omitempty,max=191"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Status        string   `json:"status" binding:"omitempty,oneof=draft published scheduled archived"`
	FeaturedImage *string  `json:"featured_image"`
	CategoryIDs   []uint64 `json:"category_ids"`
	TagIDs        []uint64 `json:"tag_ids"`
}

// PostListItem is a post without its body
type PostListItem struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToListItem converts p to a list item
func (p *Post) ToListItem() PostListItem {
	return PostListItem{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
