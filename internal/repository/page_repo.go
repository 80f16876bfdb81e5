package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"gorm.io/gorm"
)

// PageRepository page data access
type PageRepository interface {
	Create(ctx context.Context, page *domain.Page) error
	Update(ctx context.Context, page *domain.Page) error
	FindByID(ctx context.Context, id uint64) (*domain.Page, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context, page, perPage int) ([]*domain.Page, int64, error)
	Delete(ctx context.Context, id uint64) error
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(ctx context.Context, page *domain.Page) error {
	err := r.db.WithContext(ctx).Create(page).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrSlugTaken, err)
	}
	return err
}

func (r *pageRepository) Update(ctx context.Context, page *domain.Page) error {
	err := r.db.WithContext(ctx).
		Model(page).
		Select("title", "slug", "content", "excerpt", "status", "featured_image", "order_num").
		Updates(page).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrSlugTaken, err)
	}
	return err
}

func (r *pageRepository) FindByID(ctx context.Context, id uint64) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) FindBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) List(ctx context.Context, page, perPage int) ([]*domain.Page, int64, error) {
	page, perPage = normalizePage(page, perPage)

	query := r.db.WithContext(ctx).Model(&domain.Page{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pages []*domain.Page
	err := query.Order("order_num ASC, id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&pages).Error
	return pages, total, err
}

func (r *pageRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Delete(&domain.Page{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrPageNotFound
	}
	return nil
}
