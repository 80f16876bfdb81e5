package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/repository"
)

// RevisableStore loads and restores the tracked state of one entity kind
type RevisableStore interface {
	// Load returns the current state; a missing entity yields common.ErrOwnerNotFound
	Load(ctx context.Context, id uint64) (*domain.RevisionState, error)
	// ApplyRestore writes fields and the restorable metadata back onto the entity
	ApplyRestore(ctx context.Context, id uint64, fields domain.RevisionFields, meta domain.RevisionMetadata) error
}

// OwnerRegistry resolves revision owners by kind
type OwnerRegistry struct {
	mu     sync.RWMutex
	stores map[domain.EntityKind]RevisableStore
}

// NewOwnerRegistry creates an empty registry
func NewOwnerRegistry() *OwnerRegistry {
	return &OwnerRegistry{stores: make(map[domain.EntityKind]RevisableStore)}
}

// Register binds kind to store, replacing any previous binding
func (r *OwnerRegistry) Register(kind domain.EntityKind, store RevisableStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[kind] = store
}

// Resolve returns the store for kind
func (r *OwnerRegistry) Resolve(kind domain.EntityKind) (RevisableStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownOwnerKind, kind)
	}
	return store, nil
}

// Kinds lists registered kinds in sorted order
func (r *OwnerRegistry) Kinds() []domain.EntityKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]domain.EntityKind, 0, len(r.stores))
	for k := range r.stores {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ========================================
// post
// ========================================

type postRevisionStore struct {
	repo repository.PostRepository
}

// NewPostRevisionStore adapts posts to the revision engine
func NewPostRevisionStore(repo repository.PostRepository) RevisableStore {
	return &postRevisionStore{repo: repo}
}

func (s *postRevisionStore) Load(ctx context.Context, id uint64) (*domain.RevisionState, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ownerError(domain.EntityPost, id, err, common.ErrPostNotFound)
	}
	return &domain.RevisionState{Fields: post.RevisionFields(), Metadata: post.RevisionMetadata()}, nil
}

func (s *postRevisionStore) ApplyRestore(ctx context.Context, id uint64, fields domain.RevisionFields, meta domain.RevisionMetadata) error {
	return s.repo.Transaction(ctx, func(repo repository.PostRepository) error {
		post, err := repo.FindByID(ctx, id)
		if err != nil {
			return ownerError(domain.EntityPost, id, err, common.ErrPostNotFound)
		}

		post.Title = fields.Title
		post.Content = fields.Content
		post.Excerpt = fields.Excerpt
		if slug, ok := meta.String(domain.MetaSlug); ok && slug != "" {
			post.Slug = slug
		}
		if image, ok := meta.String(domain.MetaFeaturedImage); ok {
			post.FeaturedImage = &image
		}
		if err := repo.Update(ctx, post); err != nil {
			return err
		}

		if ids, ok := meta.IDs(domain.MetaCategoryIDs); ok {
			if err := repo.ReplaceCategories(ctx, post, ids); err != nil {
				return err
			}
		}
		if ids, ok := meta.IDs(domain.MetaTagIDs); ok {
			if err := repo.ReplaceTags(ctx, post, ids); err != nil {
				return err
			}
		}
		return nil
	})
}

// ========================================
// page
// ========================================

type pageRevisionStore struct {
	repo repository.PageRepository
}

// NewPageRevisionStore adapts pages to the revision engine.
// Pages have no taxonomy, so category and tag metadata is ignored.
func NewPageRevisionStore(repo repository.PageRepository) RevisableStore {
	return &pageRevisionStore{repo: repo}
}

func (s *pageRevisionStore) Load(ctx context.Context, id uint64) (*domain.RevisionState, error) {
	page, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ownerError(domain.EntityPage, id, err, common.ErrPageNotFound)
	}
	return &domain.RevisionState{Fields: page.RevisionFields(), Metadata: page.RevisionMetadata()}, nil
}

func (s *pageRevisionStore) ApplyRestore(ctx context.Context, id uint64, fields domain.RevisionFields, meta domain.RevisionMetadata) error {
	page, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ownerError(domain.EntityPage, id, err, common.ErrPageNotFound)
	}

	page.Title = fields.Title
	page.Content = fields.Content
	page.Excerpt = fields.Excerpt
	if slug, ok := meta.String(domain.MetaSlug); ok && slug != "" {
		page.Slug = slug
	}
	if image, ok := meta.String(domain.MetaFeaturedImage); ok {
		page.FeaturedImage = &image
	}
	return s.repo.Update(ctx, page)
}

func ownerError(kind domain.EntityKind, id uint64, err, notFound error) error {
	if errors.Is(err, notFound) {
		return fmt.Errorf("%w: %s", common.ErrOwnerNotFound, domain.OwnerRef{Kind: kind, ID: id})
	}
	return err
}
