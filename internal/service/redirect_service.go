package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/cache"
	"github.com/damoang/angple-blog/pkg/logger"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockWait          = 2 * time.Second
)

// RedirectService business logic for redirect rules
type RedirectService interface {
	List(ctx context.Context, page, perPage int, keyword string) ([]*domain.RedirectRule, *common.V2Meta, error)
	Get(ctx context.Context, id uint64) (*domain.RedirectRule, error)
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateRedirectRequest) (*domain.RedirectRule, error)
	Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.UpdateRedirectRequest) (*domain.RedirectRule, error)
	Delete(ctx context.Context, actor domain.Actor, id uint64) error
	Toggle(ctx context.Context, actor domain.Actor, id uint64) (*domain.RedirectRule, error)
	// Check runs the validator without persisting anything
	Check(ctx context.Context, req *domain.CheckRedirectRequest) (*domain.CheckRedirectResponse, error)
}

type redirectService struct {
	repo    repository.RedirectRepository
	cache   cache.Service
	bus     *event.Bus
	lockTTL time.Duration

	// serializes writes inside this process; the Redis lock covers other instances
	mu sync.Mutex
}

// NewRedirectService creates a new RedirectService
func NewRedirectService(repo repository.RedirectRepository, cacheService cache.Service, bus *event.Bus, lockTTL time.Duration) RedirectService {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	if lockTTL <= 0 {
		lockTTL = cache.TTLRedirectLock
	}
	return &redirectService{repo: repo, cache: cacheService, bus: bus, lockTTL: lockTTL}
}

func (s *redirectService) List(ctx context.Context, page, perPage int, keyword string) ([]*domain.RedirectRule, *common.V2Meta, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	rules, total, err := s.repo.List(ctx, page, perPage, strings.TrimSpace(keyword))
	if err != nil {
		return nil, nil, err
	}
	return rules, common.NewV2Meta(page, perPage, total), nil
}

func (s *redirectService) Get(ctx context.Context, id uint64) (*domain.RedirectRule, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *redirectService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateRedirectRequest) (*domain.RedirectRule, error) {
	rule := &domain.RedirectRule{
		SourcePath: common.NormalizeRedirectPath(req.SourcePath),
		TargetPath: common.CleanRedirectTarget(req.TargetPath),
		StatusCode: req.StatusCode,
		Active:     true,
		Note:       req.Note,
		CreatedBy:  actor.Ref(),
	}
	if rule.StatusCode == 0 {
		rule.StatusCode = domain.DefaultRedirectStatusCode
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	err := s.write(ctx, func(repo repository.RedirectRepository, rules []common.RedirectEdge) error {
		if err := validateRule(rule, rules, nil); err != nil {
			return err
		}
		return translateSourceConflict(repo.Create(ctx, rule))
	})
	if err != nil {
		return nil, err
	}

	s.logChange("redirect.created", actor, rule)
	return rule, nil
}

func (s *redirectService) Update(ctx context.Context, actor domain.Actor, id uint64, req *domain.UpdateRedirectRequest) (*domain.RedirectRule, error) {
	var rule *domain.RedirectRule
	err := s.write(ctx, func(repo repository.RedirectRepository, rules []common.RedirectEdge) error {
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.SourcePath != nil {
			existing.SourcePath = common.NormalizeRedirectPath(*req.SourcePath)
		}
		if req.TargetPath != nil {
			existing.TargetPath = common.CleanRedirectTarget(*req.TargetPath)
		}
		if req.StatusCode != nil {
			existing.StatusCode = *req.StatusCode
		}
		if req.Active != nil {
			existing.Active = *req.Active
		}
		if req.Note != nil {
			existing.Note = *req.Note
		}

		if err := validateRule(existing, rules, &existing.ID); err != nil {
			return err
		}
		if err := translateSourceConflict(repo.Update(ctx, existing)); err != nil {
			return err
		}
		rule = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logChange("redirect.updated", actor, rule)
	return rule, nil
}

func (s *redirectService) Delete(ctx context.Context, actor domain.Actor, id uint64) error {
	err := s.write(ctx, func(repo repository.RedirectRepository, _ []common.RedirectEdge) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.GetLogger().Info().
		Str("event", "redirect.deleted").
		Uint64("rule_id", id).
		Str("actor", actor.ID).
		Msg("redirect deleted")
	return nil
}

func (s *redirectService) Toggle(ctx context.Context, actor domain.Actor, id uint64) (*domain.RedirectRule, error) {
	var rule *domain.RedirectRule
	err := s.write(ctx, func(repo repository.RedirectRepository, _ []common.RedirectEdge) error {
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		// inactive rules are already part of the validated graph
		existing.Active = !existing.Active
		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		rule = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logChange("redirect.toggled", actor, rule)
	return rule, nil
}

func (s *redirectService) Check(ctx context.Context, req *domain.CheckRedirectRequest) (*domain.CheckRedirectResponse, error) {
	rules, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	source := common.NormalizeRedirectPath(req.SourcePath)
	target := common.CleanRedirectTarget(req.TargetPath)

	resp := &domain.CheckRedirectResponse{
		SourcePath:   source,
		TargetPath:   target,
		SelfRedirect: common.RejectsSelfRedirect(source, target),
	}
	if !resp.SelfRedirect {
		resp.Loop = common.WouldCreateLoop(source, target, toEdges(rules), req.ID)
	}
	resp.Valid = !resp.SelfRedirect && !resp.Loop
	return resp, nil
}

// write runs fn while holding the in-process mutex and, when Redis is
// configured, the cross-instance lock. fn sees the rule set loaded inside
// the same transaction it writes in.
func (s *redirectService) write(ctx context.Context, fn func(repo repository.RedirectRepository, rules []common.RedirectEdge) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.cache.Unlock(context.Background(), cache.LockRedirectWrites, token); err != nil {
			logger.GetLogger().Warn().Err(err).Msg("redirect lock release failed")
		}
	}()

	err = s.repo.Transaction(ctx, func(repo repository.RedirectRepository) error {
		rules, err := repo.ListAll(ctx)
		if err != nil {
			return err
		}
		return fn(repo, toEdges(rules))
	})
	if err != nil {
		return err
	}

	s.bus.Publish("redirects", event.TopicRedirectsChanged, nil)
	return nil
}

func (s *redirectService) acquire(ctx context.Context) (string, error) {
	deadline := time.Now().Add(lockWait)
	for {
		token, ok, err := s.cache.TryLock(ctx, cache.LockRedirectWrites, s.lockTTL)
		if err != nil {
			// Redis 장애 시 프로세스 내 mutex만으로 진행
			logger.GetLogger().Warn().Err(err).Msg("redirect lock unavailable, using local lock only")
			return "", nil
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", common.ErrRedirectBusy
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *redirectService) logChange(name string, actor domain.Actor, rule *domain.RedirectRule) {
	logger.GetLogger().Info().
		Str("event", name).
		Uint64("rule_id", rule.ID).
		Str("source", rule.SourcePath).
		Str("target", rule.TargetPath).
		Int("status", rule.StatusCode).
		Bool("active", rule.Active).
		Str("actor", actor.ID).
		Msg("redirect saved")
}

// validateRule rejects self-redirects, taken sources and loops against rules
func validateRule(rule *domain.RedirectRule, rules []common.RedirectEdge, candidateID *uint64) error {
	if common.IsAbsoluteURL(rule.SourcePath) {
		return common.NewValidationError("source_path", errors.New("source must be a path"))
	}
	if strings.Contains(rule.TargetPath, "://") && !common.IsAbsoluteURL(rule.TargetPath) {
		return common.NewValidationError("target_path", errors.New("target must be a path or an http(s) URL"))
	}
	if !domain.IsValidRedirectStatus(rule.StatusCode) {
		return common.NewValidationError("status_code", errors.New("status code must be 301, 302, 307 or 308"))
	}
	if common.RejectsSelfRedirect(rule.SourcePath, rule.TargetPath) {
		redirectRejectionsTotal.WithLabelValues("self").Inc()
		return common.NewValidationError("target_path", common.ErrSelfRedirect)
	}
	for _, r := range rules {
		if candidateID != nil && r.ID == *candidateID {
			continue
		}
		if common.SameRedirectPath(r.Source, rule.SourcePath) {
			redirectRejectionsTotal.WithLabelValues("source_taken").Inc()
			return common.NewValidationError("source_path", common.ErrSourceTaken)
		}
	}
	if common.WouldCreateLoop(rule.SourcePath, rule.TargetPath, rules, candidateID) {
		redirectRejectionsTotal.WithLabelValues("loop").Inc()
		return common.NewValidationError("target_path", common.ErrRedirectLoop)
	}
	return nil
}

func translateSourceConflict(err error) error {
	if errors.Is(err, common.ErrDuplicateKey) {
		return common.NewValidationError("source_path", common.ErrSourceTaken)
	}
	return err
}

func toEdges(rules []*domain.RedirectRule) []common.RedirectEdge {
	edges := make([]common.RedirectEdge, len(rules))
	for i, r := range rules {
		edges[i] = common.RedirectEdge{ID: r.ID, Source: r.SourcePath, Target: r.TargetPath}
	}
	return edges
}
