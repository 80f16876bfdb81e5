package service

import (
	"testing"

	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/internal/testutil"
	"gorm.io/gorm"
)

var editor = domain.Actor{ID: "admin", Name: "관리자", Level: domain.AdminLevel}

type fixture struct {
	db        *gorm.DB
	bus       *event.Bus
	posts     repository.PostRepository
	pages     repository.PageRepository
	revRepo   repository.RevisionRepository
	registry  *OwnerRegistry
	revisions RevisionService
	postSvc   PostService
	pageSvc   PageService
}

func newFixture(t *testing.T, opts RevisionOptions) *fixture {
	t.Helper()
	f := &fixture{db: testutil.NewDB(t), bus: event.NewBus()}
	f.posts = repository.NewPostRepository(f.db)
	f.pages = repository.NewPageRepository(f.db)
	f.revRepo = repository.NewRevisionRepository(f.db)

	f.registry = NewOwnerRegistry()
	f.registry.Register(domain.EntityPost, NewPostRevisionStore(f.posts))
	f.registry.Register(domain.EntityPage, NewPageRevisionStore(f.pages))

	f.revisions = NewRevisionService(f.revRepo, f.registry, f.bus, opts)
	f.postSvc = NewPostService(f.posts, f.revisions, f.bus)
	f.pageSvc = NewPageService(f.pages, f.revisions, f.bus)
	return f
}

func postOwner(id uint64) domain.OwnerRef {
	return domain.OwnerRef{Kind: domain.EntityPost, ID: id}
}
