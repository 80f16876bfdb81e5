package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"gorm.io/gorm"
)

// RedirectRepository redirect rule data access
type RedirectRepository interface {
	// ListAll returns every rule, active or not, ordered by id
	ListAll(ctx context.Context) ([]*domain.RedirectRule, error)
	// ListActive returns the rules served at request time
	ListActive(ctx context.Context) ([]*domain.RedirectRule, error)
	// List returns a page of rules, optionally filtered by path keyword
	List(ctx context.Context, page, perPage int, keyword string) ([]*domain.RedirectRule, int64, error)
	FindByID(ctx context.Context, id uint64) (*domain.RedirectRule, error)
	FindBySource(ctx context.Context, source string) (*domain.RedirectRule, error)
	Create(ctx context.Context, rule *domain.RedirectRule) error
	Update(ctx context.Context, rule *domain.RedirectRule) error
	Delete(ctx context.Context, id uint64) error
	// AddHits increments hit_count by n and moves last_hit_at forward
	AddHits(ctx context.Context, id uint64, n uint64, at time.Time) error
	// Transaction runs fn against a repository bound to one transaction
	Transaction(ctx context.Context, fn func(repo RedirectRepository) error) error
}

type redirectRepository struct {
	db *gorm.DB
}

// NewRedirectRepository creates a new RedirectRepository
func NewRedirectRepository(db *gorm.DB) RedirectRepository {
	return &redirectRepository{db: db}
}

func (r *redirectRepository) ListAll(ctx context.Context) ([]*domain.RedirectRule, error) {
	var rules []*domain.RedirectRule
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rules).Error
	return rules, err
}

func (r *redirectRepository) ListActive(ctx context.Context) ([]*domain.RedirectRule, error) {
	var rules []*domain.RedirectRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *redirectRepository) List(ctx context.Context, page, perPage int, keyword string) ([]*domain.RedirectRule, int64, error) {
	page, perPage = normalizePage(page, perPage)

	query := r.db.WithContext(ctx).Model(&domain.RedirectRule{})
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("source_path LIKE ? OR target_path LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []*domain.RedirectRule
	err := query.Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rules).Error
	return rules, total, err
}

func (r *redirectRepository) FindByID(ctx context.Context, id uint64) (*domain.RedirectRule, error) {
	var rule domain.RedirectRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRedirectNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *redirectRepository) FindBySource(ctx context.Context, source string) (*domain.RedirectRule, error) {
	var rule domain.RedirectRule
	err := r.db.WithContext(ctx).Where("source_path = ?", source).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRedirectNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *redirectRepository) Create(ctx context.Context, rule *domain.RedirectRule) error {
	err := r.db.WithContext(ctx).Create(rule).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrDuplicateKey, err)
	}
	return err
}

func (r *redirectRepository) Update(ctx context.Context, rule *domain.RedirectRule) error {
	err := r.db.WithContext(ctx).
		Model(rule).
		Select("source_path", "target_path", "status_code", "active", "note").
		Updates(rule).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrDuplicateKey, err)
	}
	return err
}

func (r *redirectRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.RedirectRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrRedirectNotFound
	}
	return nil
}

func (r *redirectRepository) AddHits(ctx context.Context, id uint64, n uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.RedirectRule{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"hit_count":   gorm.Expr("hit_count + ?", n),
			"last_hit_at": at,
		}).Error
}

func (r *redirectRepository) Transaction(ctx context.Context, fn func(repo RedirectRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&redirectRepository{db: tx})
	})
}
