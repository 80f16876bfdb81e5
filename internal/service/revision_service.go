package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/logger"
)

const (
	triggerSave          = "save"
	triggerManual        = "manual"
	triggerRestoreBackup = "restore_backup"
)

// RevisionOptions tunes the revision engine
type RevisionOptions struct {
	// MaxPerEntity caps unprotected revisions per owner; 0 disables pruning
	MaxPerEntity int
	// SnapshotBeforeRestore records the current state before a restore overwrites it
	SnapshotBeforeRestore bool
	// ConflictRetries is the number of attempts on a revision number conflict
	ConflictRetries int
}

// DefaultRevisionOptions matches the shipped configuration
func DefaultRevisionOptions() RevisionOptions {
	return RevisionOptions{MaxPerEntity: 50, SnapshotBeforeRestore: true, ConflictRetries: 3}
}

// RevisionService business logic for revision snapshots
type RevisionService interface {
	// RecordSave snapshots owner after a save when previous is nil (just created)
	// or any tracked field differs. It returns nil when nothing changed.
	RecordSave(ctx context.Context, actor domain.Actor, owner domain.OwnerRef, previous *domain.RevisionFields) (*domain.Revision, error)
	// CreateRevisionNow always snapshots the current state of owner
	CreateRevisionNow(ctx context.Context, actor domain.Actor, owner domain.OwnerRef) (*domain.Revision, error)
	RestoreTo(ctx context.Context, actor domain.Actor, revisionID uint64) (*domain.RestoreResult, error)
	DiffFromCurrent(ctx context.Context, revisionID uint64) (*domain.DiffResponse, error)
	Compare(ctx context.Context, fromID, toID uint64) (*domain.DiffResponse, error)
	List(ctx context.Context, owner domain.OwnerRef, page, perPage int) ([]domain.RevisionListItem, *common.V2Meta, error)
	Get(ctx context.Context, id uint64) (*domain.Revision, error)
	Delete(ctx context.Context, actor domain.Actor, id uint64) error
	BulkDelete(ctx context.Context, actor domain.Actor, ids []uint64) (*domain.BulkDeleteResult, error)
	SetProtected(ctx context.Context, actor domain.Actor, id uint64, protected bool) (*domain.Revision, error)
}

type revisionService struct {
	repo     repository.RevisionRepository
	registry *OwnerRegistry
	bus      *event.Bus
	opts     RevisionOptions
}

// NewRevisionService creates a new RevisionService
func NewRevisionService(repo repository.RevisionRepository, registry *OwnerRegistry, bus *event.Bus, opts RevisionOptions) RevisionService {
	if opts.ConflictRetries < 1 {
		opts.ConflictRetries = 1
	}
	return &revisionService{repo: repo, registry: registry, bus: bus, opts: opts}
}

func (s *revisionService) RecordSave(ctx context.Context, actor domain.Actor, owner domain.OwnerRef, previous *domain.RevisionFields) (*domain.Revision, error) {
	state, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if previous != nil && previous.Equal(state.Fields) {
		return nil, nil
	}

	rev, err := s.snapshot(ctx, actor, owner, state, true, triggerSave)
	if err != nil {
		return nil, err
	}
	s.prune(ctx, owner)
	return rev, nil
}

func (s *revisionService) CreateRevisionNow(ctx context.Context, actor domain.Actor, owner domain.OwnerRef) (*domain.Revision, error) {
	state, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, actor, owner, state, false, triggerManual)
}

func (s *revisionService) RestoreTo(ctx context.Context, actor domain.Actor, revisionID uint64) (*domain.RestoreResult, error) {
	rev, err := s.repo.FindByID(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	owner := rev.Owner()
	store, err := s.registry.Resolve(owner.Kind)
	if err != nil {
		return nil, err
	}

	result := &domain.RestoreResult{Restored: rev.ToListItem()}

	if s.opts.SnapshotBeforeRestore {
		state, err := s.load(ctx, owner)
		if err != nil {
			return nil, err
		}
		backup, err := s.snapshot(ctx, actor, owner, state, false, triggerRestoreBackup)
		if err != nil {
			return nil, fmt.Errorf("snapshot before restore: %w", err)
		}
		item := backup.ToListItem()
		result.Backup = &item
	}

	if err := store.ApplyRestore(ctx, owner.ID, rev.Fields(), rev.Metadata); err != nil {
		return nil, s.ownerFailure(owner, "restore", err)
	}

	logger.GetLogger().Info().
		Str("event", "revision.restored").
		Str("owner", owner.String()).
		Uint64("revision_id", rev.ID).
		Uint("revision_number", rev.RevisionNumber).
		Str("actor", actor.ID).
		Msg("revision restored")
	s.bus.Publish("revisions", event.TopicRevisionRestored, map[string]interface{}{
		"owner":       owner.String(),
		"revision_id": rev.ID,
	})

	return result, nil
}

func (s *revisionService) DiffFromCurrent(ctx context.Context, revisionID uint64) (*domain.DiffResponse, error) {
	rev, err := s.repo.FindByID(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	state, err := s.load(ctx, rev.Owner())
	if err != nil {
		return nil, err
	}
	return &domain.DiffResponse{
		Revision: rev.ToListItem(),
		Diff:     BuildDiffResult(rev.Fields(), state.Fields),
	}, nil
}

func (s *revisionService) Compare(ctx context.Context, fromID, toID uint64) (*domain.DiffResponse, error) {
	from, err := s.repo.FindByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.FindByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if from.Owner() != to.Owner() {
		return nil, fmt.Errorf("%w: revisions %d and %d belong to different owners", common.ErrInvalidInput, fromID, toID)
	}
	against := to.ToListItem()
	return &domain.DiffResponse{
		Revision: from.ToListItem(),
		Against:  &against,
		Diff:     BuildDiffResult(from.Fields(), to.Fields()),
	}, nil
}

func (s *revisionService) List(ctx context.Context, owner domain.OwnerRef, page, perPage int) ([]domain.RevisionListItem, *common.V2Meta, error) {
	if _, err := s.registry.Resolve(owner.Kind); err != nil {
		return nil, nil, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	revisions, total, err := s.repo.ListByOwner(ctx, owner, page, perPage)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.RevisionListItem, len(revisions))
	for i, rev := range revisions {
		items[i] = rev.ToListItem()
	}
	return items, common.NewV2Meta(page, perPage, total), nil
}

func (s *revisionService) Get(ctx context.Context, id uint64) (*domain.Revision, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *revisionService) Delete(ctx context.Context, actor domain.Actor, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.GetLogger().Info().
		Str("event", "revision.deleted").
		Uint64("revision_id", id).
		Str("actor", actor.ID).
		Msg("revision deleted")
	return nil
}

func (s *revisionService) BulkDelete(ctx context.Context, actor domain.Actor, ids []uint64) (*domain.BulkDeleteResult, error) {
	result := &domain.BulkDeleteResult{}
	seen := make(map[uint64]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		err := s.repo.Delete(ctx, id)
		switch {
		case err == nil:
			result.Deleted++
		case errors.Is(err, common.ErrProtectedRevision), errors.Is(err, common.ErrRevisionNotFound):
			// 보호된 리비전은 건너뛰고 계속 진행
			result.Skipped++
		default:
			return nil, err
		}
	}

	result.Message = fmt.Sprintf("Deleted %d revision(s).", result.Deleted)
	logger.GetLogger().Info().
		Str("event", "revision.bulk_delete").
		Int("requested", len(ids)).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Str("actor", actor.ID).
		Msg(result.Message)
	return result, nil
}

func (s *revisionService) SetProtected(ctx context.Context, actor domain.Actor, id uint64, protected bool) (*domain.Revision, error) {
	if err := s.repo.SetProtected(ctx, id, protected); err != nil {
		return nil, err
	}
	logger.GetLogger().Info().
		Str("event", "revision.protect").
		Uint64("revision_id", id).
		Bool("protected", protected).
		Str("actor", actor.ID).
		Msg("revision protection changed")
	return s.repo.FindByID(ctx, id)
}

// load resolves owner and reads its current state
func (s *revisionService) load(ctx context.Context, owner domain.OwnerRef) (*domain.RevisionState, error) {
	store, err := s.registry.Resolve(owner.Kind)
	if err != nil {
		return nil, err
	}
	state, err := store.Load(ctx, owner.ID)
	if err != nil {
		return nil, s.ownerFailure(owner, "load", err)
	}
	return state, nil
}

// ownerFailure logs contract violations (missing owner) at error level
func (s *revisionService) ownerFailure(owner domain.OwnerRef, op string, err error) error {
	if errors.Is(err, common.ErrOwnerNotFound) {
		logger.GetLogger().Error().
			Err(err).
			Str("owner", owner.String()).
			Str("op", op).
			Msg("revision owner does not exist")
	}
	return err
}

// snapshot inserts the next revision of owner, retrying when another writer
// won the race for the owner's counter or number.
func (s *revisionService) snapshot(ctx context.Context, actor domain.Actor, owner domain.OwnerRef, state *domain.RevisionState, autosave bool, trigger string) (*domain.Revision, error) {
	for attempt := 1; attempt <= s.opts.ConflictRetries; attempt++ {
		rev := &domain.Revision{
			OwnerType:     owner.Kind,
			OwnerID:       owner.ID,
			Title:         state.Fields.Title,
			Content:       state.Fields.Content,
			Excerpt:       state.Fields.Excerpt,
			Metadata:      state.Metadata,
			IsAutosave:    autosave,
			CreatedBy:     actor.Ref(),
			CreatedByName: actor.Name,
		}

		err := s.repo.CreateNext(ctx, rev)
		if err == nil {
			revisionsCreatedTotal.WithLabelValues(string(owner.Kind), trigger).Inc()
			logger.GetLogger().Info().
				Str("event", "revision.created").
				Str("owner", owner.String()).
				Uint("revision_number", rev.RevisionNumber).
				Str("trigger", trigger).
				Str("actor", actor.ID).
				Msg("revision created")
			s.bus.Publish("revisions", event.TopicRevisionCreated, map[string]interface{}{
				"owner":           owner.String(),
				"revision_id":     rev.ID,
				"revision_number": rev.RevisionNumber,
			})
			return rev, nil
		}
		if !errors.Is(err, common.ErrDuplicateKey) {
			return nil, err
		}

		revisionConflictRetries.Inc()
		logger.GetLogger().Warn().
			Str("event", "revision.conflict_retry").
			Str("owner", owner.String()).
			Int("attempt", attempt).
			Msg("revision number taken, retrying")
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", common.ErrRevisionConflict, owner, s.opts.ConflictRetries)
}

// prune applies retention; failures are logged and never fail the save
func (s *revisionService) prune(ctx context.Context, owner domain.OwnerRef) {
	if s.opts.MaxPerEntity <= 0 {
		return
	}
	n, err := s.repo.PruneUnprotected(ctx, owner, s.opts.MaxPerEntity)
	if err != nil {
		logger.GetLogger().Warn().Err(err).Str("owner", owner.String()).Msg("revision prune failed")
		return
	}
	if n > 0 {
		revisionsPrunedTotal.Add(float64(n))
	}
}
