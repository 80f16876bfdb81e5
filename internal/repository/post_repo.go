package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"gorm.io/gorm"
)

// PostRepository post data access
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	// Update persists scalar columns; associations go through ReplaceCategories/ReplaceTags
	Update(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id uint64) (*domain.Post, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Post, error)
	List(ctx context.Context, page, perPage int, status string) ([]*domain.Post, int64, error)
	Delete(ctx context.Context, id uint64) error
	// ReplaceCategories sets the post's categories to exactly ids; unknown ids are dropped
	ReplaceCategories(ctx context.Context, post *domain.Post, ids []uint64) error
	// ReplaceTags sets the post's tags to exactly ids; unknown ids are dropped
	ReplaceTags(ctx context.Context, post *domain.Post, ids []uint64) error
	Transaction(ctx context.Context, fn func(repo PostRepository) error) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	err := r.db.WithContext(ctx).Omit("Categories", "Tags").Create(post).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrSlugTaken, err)
	}
	return err
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("title", "slug", "content", "excerpt", "status", "featured_image", "published_at").
		Updates(post).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrSlugTaken, err)
	}
	return err
}

func (r *postRepository) FindByID(ctx context.Context, id uint64) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Tags").
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, page, perPage int, status string) ([]*domain.Post, int64, error) {
	page, perPage = normalizePage(page, perPage)

	query := r.db.WithContext(ctx).Model(&domain.Post{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*domain.Post
	err := query.Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := &domain.Post{ID: id}
		if err := tx.Model(post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrPostNotFound
		}
		return nil
	})
}

func (r *postRepository) ReplaceCategories(ctx context.Context, post *domain.Post, ids []uint64) error {
	var categories []domain.Category
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return err
		}
	}
	assoc := r.db.WithContext(ctx).Model(post).Association("Categories")
	if len(categories) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(categories)
}

func (r *postRepository) ReplaceTags(ctx context.Context, post *domain.Post, ids []uint64) error {
	var tags []domain.Tag
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
			return err
		}
	}
	assoc := r.db.WithContext(ctx).Model(post).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func (r *postRepository) Transaction(ctx context.Context, fn func(repo PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postRepository{db: tx})
	})
}
