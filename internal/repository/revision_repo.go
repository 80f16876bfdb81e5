package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"gorm.io/gorm"
)

// RevisionRepository content revision data access
type RevisionRepository interface {
	// Create inserts rev with its number as given. A taken (owner, revision_number)
	// pair yields common.ErrDuplicateKey.
	Create(ctx context.Context, rev *domain.Revision) error
	// CreateNext bumps the owner's counter and inserts rev under the new number
	// in one transaction. A concurrent first insert yields common.ErrDuplicateKey.
	CreateNext(ctx context.Context, rev *domain.Revision) error
	FindByID(ctx context.Context, id uint64) (*domain.Revision, error)
	// ListByOwner returns revisions newest first
	ListByOwner(ctx context.Context, owner domain.OwnerRef, page, perPage int) ([]*domain.Revision, int64, error)
	// Delete removes an unprotected revision; protected ones yield common.ErrProtectedRevision
	Delete(ctx context.Context, id uint64) error
	SetProtected(ctx context.Context, id uint64, protected bool) error
	// PruneUnprotected deletes the oldest unprotected revisions beyond keep
	PruneUnprotected(ctx context.Context, owner domain.OwnerRef, keep int) (int64, error)
	// DuplicateNumbers lists owners holding a revision number more than once
	DuplicateNumbers(ctx context.Context) ([]DuplicateRevisionNumber, error)
}

// DuplicateRevisionNumber is one integrity violation found by DuplicateNumbers
type DuplicateRevisionNumber struct {
	OwnerType      domain.EntityKind `gorm:"column:owner_type"`
	OwnerID        uint64            `gorm:"column:owner_id"`
	RevisionNumber uint              `gorm:"column:revision_number"`
	Count          int64             `gorm:"column:cnt"`
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(ctx context.Context, rev *domain.Revision) error {
	err := r.db.WithContext(ctx).Create(rev).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrDuplicateKey, err)
	}
	return err
}

func (r *revisionRepository) CreateNext(ctx context.Context, rev *domain.Revision) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := bumpCounter(tx, rev.Owner())
		if err != nil {
			return err
		}
		rev.RevisionNumber = next
		return tx.Create(rev).Error
	})
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %w", common.ErrDuplicateKey, err)
	}
	return err
}

// bumpCounter increments the owner's counter and returns the new value.
// A missing counter is seeded from the highest stored revision number.
func bumpCounter(tx *gorm.DB, owner domain.OwnerRef) (uint, error) {
	result := tx.Model(&domain.RevisionCounter{}).
		Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).
		UpdateColumn("last_number", gorm.Expr("last_number + 1"))
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		highest, err := highestNumber(tx, owner)
		if err != nil {
			return 0, err
		}
		counter := domain.RevisionCounter{OwnerType: owner.Kind, OwnerID: owner.ID, LastNumber: highest + 1}
		if err := tx.Create(&counter).Error; err != nil {
			return 0, err
		}
		return counter.LastNumber, nil
	}

	var counter domain.RevisionCounter
	err := tx.Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).First(&counter).Error
	return counter.LastNumber, err
}

func highestNumber(tx *gorm.DB, owner domain.OwnerRef) (uint, error) {
	var maxNumber *uint
	err := tx.Model(&domain.Revision{}).
		Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID).
		Select("MAX(revision_number)").
		Scan(&maxNumber).Error
	if err != nil || maxNumber == nil {
		return 0, err
	}
	return *maxNumber, nil
}

func (r *revisionRepository) FindByID(ctx context.Context, id uint64) (*domain.Revision, error) {
	var rev domain.Revision
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRevisionNotFound
		}
		return nil, err
	}
	return &rev, nil
}

func (r *revisionRepository) ListByOwner(ctx context.Context, owner domain.OwnerRef, page, perPage int) ([]*domain.Revision, int64, error) {
	page, perPage = normalizePage(page, perPage)

	query := r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Where("owner_type = ? AND owner_id = ?", owner.Kind, owner.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var revisions []*domain.Revision
	err := query.Order("revision_number DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&revisions).Error
	return revisions, total, err
}

func (r *revisionRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND is_protected = ?", id, false).
		Delete(&domain.Revision{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Revision{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return common.ErrProtectedRevision
	}
	return common.ErrRevisionNotFound
}

func (r *revisionRepository) SetProtected(ctx context.Context, id uint64, protected bool) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Where("id = ?", id).
		UpdateColumn("is_protected", protected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL reports 0 rows when the value is unchanged
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *revisionRepository) PruneUnprotected(ctx context.Context, owner domain.OwnerRef, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	var keepIDs []uint64
	err := r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Where("owner_type = ? AND owner_id = ? AND is_protected = ?", owner.Kind, owner.ID, false).
		Order("revision_number DESC").
		Limit(keep).
		Pluck("id", &keepIDs).Error
	if err != nil {
		return 0, err
	}
	if len(keepIDs) < keep {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND is_protected = ?", owner.Kind, owner.ID, false).
		Where("id NOT IN ?", keepIDs).
		Delete(&domain.Revision{})
	return result.RowsAffected, result.Error
}

func (r *revisionRepository) DuplicateNumbers(ctx context.Context) ([]DuplicateRevisionNumber, error) {
	var dups []DuplicateRevisionNumber
	err := r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Select("owner_type, owner_id, revision_number, COUNT(*) AS cnt").
		Group("owner_type, owner_id, revision_number").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	return dups, err
}
