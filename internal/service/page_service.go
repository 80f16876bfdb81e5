package service

import (
	"context"
	"errors"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/logger"
)

// PageService business logic for standalone pages
type PageService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.PageRequest) (*domain.Page, error)
	Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.PageRequest) (*domain.Page, error)
	Get(ctx context.Context, id uint64) (*domain.Page, error)
	GetPublished(ctx context.Context, slug string) (*domain.Page, error)
	List(ctx context.Context, page, perPage int) ([]*domain.Page, *common.V2Meta, error)
	Delete(ctx context.Context, actor domain.Actor, id uint64) error
}

type pageService struct {
	repo      repository.PageRepository
	revisions RevisionService
	bus       *event.Bus
}

// NewPageService creates a new PageService
func NewPageService(repo repository.PageRepository, revisions RevisionService, bus *event.Bus) PageService {
	return &pageService{repo: repo, revisions: revisions, bus: bus}
}

func (s *pageService) Create(ctx context.Context, actor domain.Actor, req *domain.PageRequest) (*domain.Page, error) {
	page := &domain.Page{}
	applyPageRequest(page, req)
	if page.Slug == "" {
		return nil, common.NewValidationError("slug", errors.New("slug cannot be derived from the title"))
	}
	if err := s.repo.Create(ctx, page); err != nil {
		return nil, slugError(err)
	}

	s.afterSave(ctx, actor, page.ID, nil)
	return page, nil
}

func (s *pageService) Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.PageRequest) (*domain.Page, error) {
	page, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := page.RevisionFields()

	applyPageRequest(page, req)
	if err := s.repo.Update(ctx, page); err != nil {
		return nil, slugError(err)
	}

	s.afterSave(ctx, actor, id, &previous)
	return page, nil
}

func (s *pageService) Get(ctx context.Context, id uint64) (*domain.Page, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *pageService) GetPublished(ctx context.Context, slug string) (*domain.Page, error) {
	page, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if page.Status != domain.StatusPublished {
		return nil, common.ErrPageNotFound
	}
	return page, nil
}

func (s *pageService) List(ctx context.Context, page, perPage int) ([]*domain.Page, *common.V2Meta, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	pages, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return pages, common.NewV2Meta(page, perPage, total), nil
}

func (s *pageService) Delete(ctx context.Context, actor domain.Actor, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.GetLogger().Info().
		Str("event", "page.deleted").
		Uint64("page_id", id).
		Str("actor", actor.ID).
		Msg("page deleted")
	return nil
}

func (s *pageService) afterSave(ctx context.Context, actor domain.Actor, id uint64, previous *domain.RevisionFields) {
	owner := domain.OwnerRef{Kind: domain.EntityPage, ID: id}
	if s.revisions != nil {
		if _, err := s.revisions.RecordSave(ctx, actor, owner, previous); err != nil {
			logger.GetLogger().Error().Err(err).Str("owner", owner.String()).Msg("revision after save failed")
		}
	}
	s.bus.Publish("pages", event.TopicContentSaved, map[string]interface{}{"owner": owner.String()})
}

func applyPageRequest(page *domain.Page, req *domain.PageRequest) {
	page.Title = req.Title
	page.Content = req.Content
	page.Excerpt = req.Excerpt
	page.FeaturedImage = req.FeaturedImage
	page.OrderNum = req.OrderNum

	if req.Slug != "" {
		page.Slug = common.Slugify(req.Slug)
	} else if page.Slug == "" {
		page.Slug = common.Slugify(req.Title)
	}
	if req.Status != "" {
		page.Status = req.Status
	} else if page.Status == "" {
		page.Status = domain.StatusDraft
	}
}
