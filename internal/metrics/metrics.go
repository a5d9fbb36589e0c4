// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts pipeline runs by outcome (ok, degraded, invalid).
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veriscope_analyses_total",
		Help: "Pipeline runs by outcome.",
	}, []string{"outcome"})

	// StageDegraded counts stage executions that fell back to simulated results.
	StageDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veriscope_stage_degraded_total",
		Help: "Stage executions that substituted a simulated fallback.",
	}, []string{"stage"})

	// StageDuration observes per-stage wall time.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "veriscope_stage_duration_seconds",
		Help:    "Stage wall time in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// LevelUps counts profile level-ups awarded.
	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veriscope_level_ups_total",
		Help: "Profile level-ups awarded.",
	})

	// NewsItems counts news items fetched per source.
	NewsItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veriscope_news_items_total",
		Help: "News items fetched per source.",
	}, []string{"source"})
)
