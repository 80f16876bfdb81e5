package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/damoang/angple-blog/internal/common"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/cache"
	"github.com/damoang/angple-blog/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RuleSet is an immutable view of the active redirect rules keyed by
// normalized source path.
type RuleSet struct {
	rules    map[string]*domain.RedirectRule
	loadedAt time.Time
}

func newRuleSet(rules []*domain.RedirectRule) *RuleSet {
	rs := &RuleSet{rules: make(map[string]*domain.RedirectRule, len(rules)), loadedAt: time.Now()}
	for _, r := range rules {
		if !r.Active {
			continue
		}
		rs.rules[common.NormalizeRedirectPath(r.SourcePath)] = r
	}
	return rs
}

// Lookup finds the rule whose source matches path
func (rs *RuleSet) Lookup(path string) (*domain.RedirectRule, bool) {
	r, ok := rs.rules[common.NormalizeRedirectPath(path)]
	return r, ok
}

// Len returns the number of active rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// invalidation message sent to other instances
type invalidation struct {
	Origin string `json:"origin"`
}

// RedirectCache serves the active rule set to the request path.
// Reloads are coalesced; Redis holds a shared JSON copy and carries
// invalidations between instances.
type RedirectCache struct {
	repo       repository.RedirectRepository
	cache      cache.Service
	ttl        time.Duration
	instanceID string

	current atomic.Pointer[RuleSet]
	group   singleflight.Group
	// generation 은 무효화마다 증가; 그 사이에 읽은 규칙은 버림
	generation atomic.Uint64

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRedirectCache creates a RedirectCache. cacheService may wrap a nil client.
func NewRedirectCache(repo repository.RedirectRepository, cacheService cache.Service, ttl time.Duration) *RedirectCache {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	if ttl <= 0 {
		ttl = cache.TTLRedirectRules
	}
	return &RedirectCache{
		repo:       repo,
		cache:      cacheService,
		ttl:        ttl,
		instanceID: uuid.NewString(),
	}
}

// Snapshot returns the current rule set, reloading it when missing or stale
func (c *RedirectCache) Snapshot(ctx context.Context) (*RuleSet, error) {
	if rs := c.current.Load(); rs != nil && time.Since(rs.loadedAt) < c.ttl {
		return rs, nil
	}

	v, err, _ := c.group.Do("rules", func() (interface{}, error) {
		// 다른 goroutine이 이미 갱신했을 수 있음
		if rs := c.current.Load(); rs != nil && time.Since(rs.loadedAt) < c.ttl {
			return rs, nil
		}
		gen := c.generation.Load()
		rs, err := c.load(ctx, gen)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.current.Store(rs)
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RuleSet), nil
}

// load reads the rule set from Redis or the database. gen is the generation
// seen before reading; a changed generation keeps a stale set out of Redis.
func (c *RedirectCache) load(ctx context.Context, gen uint64) (*RuleSet, error) {
	var rules []*domain.RedirectRule
	err := c.cache.Get(ctx, cache.KeyRedirectRules, &rules)
	if err == nil {
		redirectCacheReloads.WithLabelValues("redis").Inc()
		return newRuleSet(rules), nil
	}
	if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrUnavailable) {
		logger.GetLogger().Warn().Err(err).Msg("redirect rules cache read failed")
	}

	rules, err = c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	redirectCacheReloads.WithLabelValues("db").Inc()

	if c.generation.Load() != gen {
		return newRuleSet(rules), nil
	}
	if err := c.cache.Set(ctx, cache.KeyRedirectRules, rules, c.ttl); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("redirect rules cache write failed")
	}
	// Set 도중 무효화된 경우 방금 쓴 사본 제거
	if c.generation.Load() != gen {
		_ = c.cache.Delete(ctx, cache.KeyRedirectRules)
	}
	return newRuleSet(rules), nil
}

// Invalidate drops the local snapshot and the shared copy, then tells
// other instances to drop theirs.
func (c *RedirectCache) Invalidate(ctx context.Context) {
	c.dropLocal()
	if err := c.cache.Delete(ctx, cache.KeyRedirectRules); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("redirect rules cache delete failed")
	}
	if err := c.cache.Publish(ctx, cache.ChannelRedirectsFlush, invalidation{Origin: c.instanceID}); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("redirect invalidation publish failed")
	}
}

// dropLocal discards the local snapshot and any reload already in flight
func (c *RedirectCache) dropLocal() {
	c.generation.Add(1)
	c.group.Forget("rules")
	c.current.Store(nil)
}

// Attach subscribes the cache to rule changes on bus
func (c *RedirectCache) Attach(bus *event.Bus) {
	bus.Subscribe("redirect-cache", event.TopicRedirectsChanged, func(_ event.Event) {
		c.Invalidate(context.Background())
	})
}

// Start listens for invalidations from other instances. It is a no-op
// without Redis.
func (c *RedirectCache) Start() {
	if !c.cache.IsAvailable() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	pubsub := c.cache.Subscribe(ctx, cache.ChannelRedirectsFlush)
	go func() {
		defer close(c.done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var inv invalidation
				if err := json.Unmarshal([]byte(msg.Payload), &inv); err != nil {
					continue
				}
				// 자기 자신이 보낸 메시지는 이미 반영됨
				if inv.Origin != c.instanceID {
					c.dropLocal()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the subscription started by Start
func (c *RedirectCache) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
	})
}

// Resolve follows the rule chain starting at path for at most maxHops rules.
// The first rule's status code is used for the final location. A chain that
// revisits a path is abandoned and reports no redirect.
func (c *RedirectCache) Resolve(ctx context.Context, path string, maxHops int) (*domain.RedirectTarget, bool, error) {
	rs, err := c.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	first, ok := rs.Lookup(path)
	if !ok {
		return nil, false, nil
	}
	if maxHops < 1 {
		maxHops = 1
	}

	visited := map[string]struct{}{common.NormalizeRedirectPath(path): {}}
	location := first.TargetPath
	hops := 1
	for hops < maxHops && !common.IsAbsoluteURL(location) {
		key := common.NormalizeRedirectPath(location)
		if _, seen := visited[key]; seen {
			redirectLoopsServed.Inc()
			logger.GetLogger().Warn().
				Str("path", path).
				Str("at", key).
				Msg("redirect chain loops, not redirecting")
			return nil, false, nil
		}
		next, ok := rs.Lookup(key)
		if !ok {
			break
		}
		visited[key] = struct{}{}
		location = next.TargetPath
		hops++
	}

	return &domain.RedirectTarget{
		RuleID:     first.ID,
		Location:   location,
		StatusCode: first.StatusCode,
		Hops:       hops,
	}, true, nil
}
