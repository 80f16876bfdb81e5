package domain

import "time"

// Page is a standalone CMS page. Pages have no categories or tags.
// Table: pages
type Page struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title         string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Slug          string    `gorm:"column:slug;type:varchar(191);uniqueIndex" json:"slug"`
	Content       string    `gorm:"column:content;type:mediumtext" json:"content"`
	Excerpt       string    `gorm:"column:excerpt;type:text" json:"excerpt"`
	Status        string    `gorm:"column:status;type:varchar(20);index" json:"status"`
	FeaturedImage *string   `gorm:"column:featured_image;type:varchar(500)" json:"featured_image,omitempty"`
	OrderNum      int       `gorm:"column:order_num" json:"order_num"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Page
func (Page) TableName() string {
	return "pages"
}

// RevisionFields returns the tracked fields of p
func (p *Page) RevisionFields() RevisionFields {
	return RevisionFields{Title: p.Title, Content: p.Content, Excerpt: p.Excerpt}
}

// RevisionMetadata returns the restorable auxiliary state of p
func (p *Page) RevisionMetadata() RevisionMetadata {
	meta := RevisionMetadata{
		MetaSlug:   p.Slug,
		MetaStatus: p.Status,
	}
	if p.FeaturedImage != nil {
		meta[MetaFeaturedImage] = *p.FeaturedImage
	}
	return meta
}

// PageRequest is the editor form for creating or updating a page
type PageRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Slug          string  `json:"slug" binding:"omitempty,max=191"`
	Content       string  `json:"content"`
	Excerpt       string  `json:"excerpt"`
	Status        string  `json:"status" binding:"omitempty,oneof=draft published archived"`
	FeaturedImage *string `json:"featured_image"`
	OrderNum      int     `json:"order_num"`
}
