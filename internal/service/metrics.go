package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	revisionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisions_created_total",
			Help: "Total number of revision snapshots created",
		},
		[]string{"kind", "trigger"}, // trigger: save, manual, restore_backup
	)

	revisionConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revision_conflict_retries_total",
			Help: "Revision number conflicts that were retried",
		},
	)

	revisionsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revisions_pruned_total",
			Help: "Unprotected revisions removed by retention",
		},
	)

	redirectRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_rejections_total",
			Help: "Redirect writes rejected by graph validation",
		},
		[]string{"reason"}, // self, loop, source_taken
	)

	redirectHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirect_hits_total",
			Help: "Requests answered with a redirect",
		},
	)

	redirectHitsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirect_hits_dropped_total",
			Help: "Hit records dropped because the buffer was full",
		},
	)

	redirectLoopsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirect_loops_detected_total",
			Help: "Request-time chains abandoned because they looped",
		},
	)

	redirectCacheReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_cache_reloads_total",
			Help: "Redirect rule-set reloads by source",
		},
		[]string{"source"}, // redis, db
	)
)
