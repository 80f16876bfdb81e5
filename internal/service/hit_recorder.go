package service

import (
	"context"
	"sync"
	"time"

	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/pkg/logger"
)

const (
	defaultHitBuffer   = 1024
	defaultHitInterval = 10 * time.Second
	hitFlushTimeout    = 5 * time.Second
)

type hit struct {
	ruleID uint64
	at     time.Time
}

type hitAgg struct {
	count uint64
	last  time.Time
}

// HitRecorder aggregates redirect hits off the request path and writes
// them in batches.
type HitRecorder struct {
	repo     repository.RedirectRepository
	interval time.Duration
	hits     chan hit
	pending  map[uint64]*hitAgg

	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHitRecorder creates a recorder; call Start before Record
func NewHitRecorder(repo repository.RedirectRepository, interval time.Duration, buffer int) *HitRecorder {
	if interval <= 0 {
		interval = defaultHitInterval
	}
	if buffer <= 0 {
		buffer = defaultHitBuffer
	}
	return &HitRecorder{
		repo:     repo,
		interval: interval,
		hits:     make(chan hit, buffer),
		pending:  make(map[uint64]*hitAgg),
		stop:     make(chan struct{}),
	}
}

// Record queues a hit. It never blocks; hits are dropped when the buffer is full.
func (r *HitRecorder) Record(ruleID uint64, at time.Time) {
	redirectHitsTotal.Inc()
	select {
	case r.hits <- hit{ruleID: ruleID, at: at}:
	default:
		redirectHitsDropped.Inc()
	}
}

// Start runs the flush loop in the background
func (r *HitRecorder) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop drains queued hits, flushes them and waits for the loop to exit
func (r *HitRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

func (r *HitRecorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case h := <-r.hits:
			r.add(h)
		case <-ticker.C:
			r.flush()
		case <-r.stop:
			for {
				select {
				case h := <-r.hits:
					r.add(h)
				default:
					r.flush()
					return
				}
			}
		}
	}
}

func (r *HitRecorder) add(h hit) {
	agg, ok := r.pending[h.ruleID]
	if !ok {
		agg = &hitAgg{}
		r.pending[h.ruleID] = agg
	}
	agg.count++
	if h.at.After(agg.last) {
		agg.last = h.at
	}
}

func (r *HitRecorder) flush() {
	if len(r.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hitFlushTimeout)
	defer cancel()

	for id, agg := range r.pending {
		if err := r.repo.AddHits(ctx, id, agg.count, agg.last); err != nil {
			// 다음 주기에 재시도
			logger.GetLogger().Warn().Err(err).Uint64("rule_id", id).Msg("redirect hit flush failed")
			continue
		}
		delete(r.pending, id)
	}
}
