package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/internal/testutil"
	"github.com/damoang/angple-blog/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedirectService(t *testing.T) (RedirectService, repository.RedirectRepository, *event.Bus) {
	t.Helper()
	repo := repository.NewRedirectRepository(testutil.NewDB(t))
	bus := event.NewBus()
	return NewRedirectService(repo, cache.NewService(nil), bus, 0), repo, bus
}

func createRule(t *testing.T, svc RedirectService, source, target string) *domain.RedirectRule {
	t.Helper()
	rule, err := svc.Create(context.Background(), editor, &domain.CreateRedirectRequest{SourcePath: source, TargetPath: target})
	require.NoError(t, err)
	return rule
}

func fieldOf(err error) string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

func TestRedirectService_CreateNormalizes(t *testing.T) {
	svc, _, _ := newRedirectService(t)

	rule := createRule(t, svc, " /Old-Page/ ", "new-page")
	assert.Equal(t, "/old-page", rule.SourcePath)
	assert.Equal(t, "/new-page", rule.TargetPath)
	assert.Equal(t, domain.DefaultRedirectStatusCode, rule.StatusCode)
	assert.True(t, rule.Active)
	require.NotNil(t, rule.CreatedBy)
}

func TestRedirectService_TargetKeepsCase(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRedirectService(t)

	rule := createRule(t, svc, "/old", " /Docs/Guide.PDF?token=AbC ")
	assert.Equal(t, "/Docs/Guide.PDF?token=AbC", rule.TargetPath)

	stored, err := repo.FindByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "/Docs/Guide.PDF?token=AbC", stored.TargetPath)

	target := "/Archive/2024/"
	updated, err := svc.Update(ctx, editor, rule.ID, &domain.UpdateRedirectRequest{TargetPath: &target})
	require.NoError(t, err)
	assert.Equal(t, "/Archive/2024", updated.TargetPath)

	// 비교는 여전히 대소문자 구분 없음
	_, err = svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/archive/2024", TargetPath: "/OLD"})
	assert.ErrorIs(t, err, common.ErrRedirectLoop)
}

func TestRedirectService_RejectsSelfRedirect(t *testing.T) {
	svc, repo, _ := newRedirectService(t)

	_, err := svc.Create(context.Background(), editor, &domain.CreateRedirectRequest{SourcePath: "/About/", TargetPath: "/about"})
	assert.ErrorIs(t, err, common.ErrSelfRedirect)
	assert.ErrorIs(t, err, common.ErrValidationRejected)
	assert.Equal(t, "target_path", fieldOf(err))

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "rejected rules are never persisted")
}

func TestRedirectService_RejectsLoop(t *testing.T) {
	svc, _, _ := newRedirectService(t)
	createRule(t, svc, "/old", "/new")

	_, err := svc.Create(context.Background(), editor, &domain.CreateRedirectRequest{SourcePath: "/new", TargetPath: "/old"})
	assert.ErrorIs(t, err, common.ErrRedirectLoop)
	assert.Equal(t, "target_path", fieldOf(err))
}

func TestRedirectService_AllowsChain(t *testing.T) {
	svc, _, _ := newRedirectService(t)
	createRule(t, svc, "/a", "/b")
	createRule(t, svc, "/b", "/c")
	createRule(t, svc, "/c", "/d")
}

func TestRedirectService_LoopThroughInactiveRule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRedirectService(t)
	inactive := false
	_, err := svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/a", TargetPath: "/b", Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/b", TargetPath: "/a"})
	assert.ErrorIs(t, err, common.ErrRedirectLoop)
}

func TestRedirectService_UpdateExcludesOwnEdge(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRedirectService(t)
	rule := createRule(t, svc, "/a", "/b")
	createRule(t, svc, "/b", "/c")

	// /a -> /c : old edge /a -> /b is replaced, no loop
	target := "/c"
	updated, err := svc.Update(ctx, editor, rule.ID, &domain.UpdateRedirectRequest{TargetPath: &target})
	require.NoError(t, err)
	assert.Equal(t, "/c", updated.TargetPath)

	// /c -> /a closes the updated edge
	second, err := svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/c", TargetPath: "/a"})
	assert.ErrorIs(t, err, common.ErrRedirectLoop)
	assert.Nil(t, second)
}

func TestRedirectService_DuplicateSource(t *testing.T) {
	svc, _, _ := newRedirectService(t)
	createRule(t, svc, "/a", "/b")

	_, err := svc.Create(context.Background(), editor, &domain.CreateRedirectRequest{SourcePath: "/A/", TargetPath: "/z"})
	assert.ErrorIs(t, err, common.ErrSourceTaken)
	assert.Equal(t, "source_path", fieldOf(err))
}

func TestRedirectService_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRedirectService(t)

	_, err := svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "https://example.com/x", TargetPath: "/y"})
	assert.Equal(t, "source_path", fieldOf(err))

	_, err = svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/x", TargetPath: "ftp://example.com/y"})
	assert.Equal(t, "target_path", fieldOf(err))

	_, err = svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: "/x", TargetPath: "/y", StatusCode: 303})
	assert.Equal(t, "status_code", fieldOf(err))
}

func TestRedirectService_AbsoluteTargetNeverLoops(t *testing.T) {
	svc, _, _ := newRedirectService(t)
	rule := createRule(t, svc, "/docs", "https://docs.example.com/Guide")
	assert.Equal(t, "https://docs.example.com/Guide", rule.TargetPath)
}

func TestRedirectService_Check(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRedirectService(t)
	rule := createRule(t, svc, "/old", "/new")

	resp, err := svc.Check(ctx, &domain.CheckRedirectRequest{SourcePath: "/new", TargetPath: "/old"})
	require.NoError(t, err)
	assert.True(t, resp.Loop)
	assert.False(t, resp.Valid)

	// editing the rule itself is not a loop
	resp, err = svc.Check(ctx, &domain.CheckRedirectRequest{ID: &rule.ID, SourcePath: "/new", TargetPath: "/old"})
	require.NoError(t, err)
	assert.False(t, resp.Loop)
	assert.True(t, resp.Valid)

	resp, err = svc.Check(ctx, &domain.CheckRedirectRequest{SourcePath: "/x", TargetPath: "/X/"})
	require.NoError(t, err)
	assert.True(t, resp.SelfRedirect)
	assert.False(t, resp.Valid)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRedirectService_ToggleAndDeletePublishChange(t *testing.T) {
	ctx := context.Background()
	svc, _, bus := newRedirectService(t)

	changes := 0
	bus.Subscribe("test", event.TopicRedirectsChanged, func(_ event.Event) { changes++ })

	rule := createRule(t, svc, "/a", "/b")
	toggled, err := svc.Toggle(ctx, editor, rule.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	require.NoError(t, svc.Delete(ctx, editor, rule.ID))
	assert.ErrorIs(t, svc.Delete(ctx, editor, rule.ID), common.ErrRedirectNotFound)

	assert.Equal(t, 3, changes)
}

func TestRedirectService_ConcurrentWritesStayAcyclic(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newRedirectService(t)

	// /p -> /q and /q -> /p race; only one may win
	var wg sync.WaitGroup
	errs := make([]error, 2)
	pairs := [][2]string{{"/p", "/q"}, {"/q", "/p"}}
	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, source, target string) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, editor, &domain.CreateRedirectRequest{SourcePath: source, TargetPath: target})
		}(i, pair[0], pair[1])
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, common.ErrRedirectLoop)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	edges := toEdges(all)
	assert.Empty(t, common.FindRedirectCycles(edges))
}
