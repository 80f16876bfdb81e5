package repository_test

import (
	"context"
	"testing"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ReplaceTaxonomy(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewPostRepository(db)

	tags := []domain.Tag{{Name: "go", Slug: "go"}, {Name: "gin", Slug: "gin"}}
	require.NoError(t, db.Create(&tags).Error)

	post := &domain.Post{Title: "Hello", Slug: "hello", Status: domain.StatusDraft}
	require.NoError(t, repo.Create(ctx, post))

	// 존재하지 않는 id(999)는 무시
	require.NoError(t, repo.ReplaceTags(ctx, post, []uint64{tags[0].ID, 999}))
	require.NoError(t, repo.ReplaceCategories(ctx, post, []uint64{1}))

	found, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, found.Tags, 1)
	assert.Equal(t, "go", found.Tags[0].Slug)
	require.Len(t, found.Categories, 1)

	require.NoError(t, repo.ReplaceTags(ctx, found, nil))
	found, err = repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Tags)
}

func TestPostRepository_SlugTaken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, &domain.Post{Title: "A", Slug: "same"}))
	err := repo.Create(ctx, &domain.Post{Title: "B", Slug: "same"})
	assert.ErrorIs(t, err, common.ErrSlugTaken)
}

func TestPostRepository_ListByStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, &domain.Post{Title: "A", Slug: "a", Status: domain.StatusPublished}))
	draft := &domain.Post{Title: "B", Slug: "b", Status: domain.StatusDraft}
	require.NoError(t, repo.Create(ctx, draft))

	posts, total, err := repo.List(ctx, 1, 20, domain.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", posts[0].Slug)

	require.NoError(t, repo.Delete(ctx, draft.ID))
	_, err = repo.FindBySlug(ctx, "b")
	assert.ErrorIs(t, err, common.ErrPostNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, draft.ID), common.ErrPostNotFound)
}
