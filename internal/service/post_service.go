package service

import (
	"context"
	"errors"
	"time"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/logger"
)

// PostService business logic for posts
type PostService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.PostRequest) (*domain.Post, error)
	Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.PostRequest) (*domain.Post, error)
	Get(ctx context.Context, id uint64) (*domain.Post, error)
	// GetPublished returns a post by slug only when it is published
	GetPublished(ctx context.Context, slug string) (*domain.Post, error)
	List(ctx context.Context, page, perPage int, status string) ([]domain.PostListItem, *common.V2Meta, error)
	Delete(ctx context.Context, actor domain.Actor, id uint64) error
}

type postService struct {
	repo      repository.PostRepository
	revisions RevisionService
	bus       *event.Bus
}

// NewPostService creates a new PostService
func NewPostService(repo repository.PostRepository, revisions RevisionService, bus *event.Bus) PostService {
	return &postService{repo: repo, revisions: revisions, bus: bus}
}

func (s *postService) Create(ctx context.Context, actor domain.Actor, req *domain.PostRequest) (*domain.Post, error) {
	post := &domain.Post{AuthorID: actor.Ref()}
	applyPostRequest(post, req)
	if post.Slug == "" {
		return nil, common.NewValidationError("slug", errors.New("slug cannot be derived from the title"))
	}

	err := s.repo.Transaction(ctx, func(repo repository.PostRepository) error {
		if err := repo.Create(ctx, post); err != nil {
			return err
		}
		if err := repo.ReplaceCategories(ctx, post, req.CategoryIDs); err != nil {
			return err
		}
		return repo.ReplaceTags(ctx, post, req.TagIDs)
	})
	if err != nil {
		return nil, slugError(err)
	}

	s.afterSave(ctx, actor, post.ID, nil)
	return s.repo.FindByID(ctx, post.ID)
}

func (s *postService) Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.PostRequest) (*domain.Post, error) {
	var previous domain.RevisionFields
	err := s.repo.Transaction(ctx, func(repo repository.PostRepository) error {
		post, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		previous = post.RevisionFields()

		applyPostRequest(post, req)
		if err := repo.Update(ctx, post); err != nil {
			return err
		}
		// nil 이면 기존 분류 유지
		if req.CategoryIDs != nil {
			if err := repo.ReplaceCategories(ctx, post, req.CategoryIDs); err != nil {
				return err
			}
		}
		if req.TagIDs != nil {
			if err := repo.ReplaceTags(ctx, post, req.TagIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, slugError(err)
	}

	s.afterSave(ctx, actor, id, &previous)
	return s.repo.FindByID(ctx, id)
}

func (s *postService) Get(ctx context.Context, id uint64) (*domain.Post, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *postService) GetPublished(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.Status != domain.StatusPublished {
		return nil, common.ErrPostNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, page, perPage int, status string) ([]domain.PostListItem, *common.V2Meta, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	posts, total, err := s.repo.List(ctx, page, perPage, status)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.PostListItem, len(posts))
	for i, p := range posts {
		items[i] = p.ToListItem()
	}
	return items, common.NewV2Meta(page, perPage, total), nil
}

// Delete removes the post. Its revisions stay behind.
func (s *postService) Delete(ctx context.Context, actor domain.Actor, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.GetLogger().Info().
		Str("event", "post.deleted").
		Uint64("post_id", id).
		Str("actor", actor.ID).
		Msg("post deleted")
	return nil
}

// afterSave records a revision for the save. The save itself already
// committed, so a revision failure is logged rather than returned.
func (s *postService) afterSave(ctx context.Context, actor domain.Actor, id uint64, previous *domain.RevisionFields) {
	owner := domain.OwnerRef{Kind: domain.EntityPost, ID: id}
	if s.revisions != nil {
		if _, err := s.revisions.RecordSave(ctx, actor, owner, previous); err != nil {
			logger.GetLogger().Error().Err(err).Str("owner", owner.String()).Msg("revision after save failed")
		}
	}
	s.bus.Publish("posts", event.TopicContentSaved, map[string]interface{}{"owner": owner.String()})
}

func applyPostRequest(post *domain.Post, req *domain.PostRequest) {
	post.Title = req.Title
	post.Content = req.Content
	post.Excerpt = req.Excerpt
	post.FeaturedImage = req.FeaturedImage

	if req.Slug != "" {
		post.Slug = common.Slugify(req.Slug)
	} else if post.Slug == "" {
		post.Slug = common.Slugify(req.Title)
	}

	if req.Status != "" {
		post.Status = req.Status
	} else if post.Status == "" {
		post.Status = domain.StatusDraft
	}
	if post.Status == domain.StatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
}

func slugError(err error) error {
	if errors.Is(err, common.ErrSlugTaken) {
		return common.NewValidationError("slug", common.ErrSlugTaken)
	}
	return err
}
