package migration

import (
	"github.com/damoang/angple-blog/internal/domain"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in creation order
func Models() []interface{} {
	return []interface{}{
		&domain.Category{},
		&domain.Tag{},
		&domain.Post{},
		&domain.Page{},
		&domain.RedirectRule{},
		&domain.Revision{},
		&domain.RevisionCounter{},
	}
}

// Run executes AutoMigrate for all tables and seeds default data if empty.
// This is safe to run multiple times (AutoMigrate is idempotent).
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 컬럼/인덱스만 추가
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	// 2. Seed - categories 테이블이 비어있을 때만 기본 분류 삽입
	var count int64
	if err := db.Model(&domain.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return seedCategories(db)
	}
	return nil
}

func seedCategories(db *gorm.DB) error {
	categories := []domain.Category{
		{Name: "미분류", Slug: "uncategorized"},
		{Name: "공지", Slug: "notice"},
	}
	return db.Create(&categories).Error
}
