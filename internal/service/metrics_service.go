package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smart-student/assignment-engine/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	audienceResolutions *prometheus.CounterVec
	indexRebuilds       prometheus.Counter
	indexDiagnostics    prometheus.Gauge
	reconcilePasses     prometheus.Counter
	reconcileDiffs      prometheus.Counter
	syncBatchDuration   *prometheus.HistogramVec
	syncOps             *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
}

// NewMetricsService registers the engine collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	audienceResolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audience_resolutions_total",
		Help: "Audience resolutions by addressing mode and diagnostic outcome",
	}, []string{"mode", "diagnostic"})

	indexRebuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_index_rebuilds_total",
		Help: "Snapshot index rebuilds",
	})

	indexDiagnostics := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assignment_index_integrity_violations",
		Help: "Records excluded from the last index build",
	})

	reconcilePasses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_reconcile_passes_total",
		Help: "Completed profile reconciliation passes",
	})

	reconcileDiffs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "profile_reconcile_diffs_total",
		Help: "Profile diffs applied by reconciliation passes",
	})

	syncBatchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_batch_duration_seconds",
		Help:    "Duration of persistent store batch commits",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	syncOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_operations_total",
		Help: "Sync writer operations by result",
	}, []string{"result"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audience_cache_lookups_total",
		Help: "Audience cache lookups by outcome",
	}, []string{"outcome"})

	registry.MustRegister(audienceResolutions, indexRebuilds, indexDiagnostics,
		reconcilePasses, reconcileDiffs, syncBatchDuration, syncOps, cacheLookups)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		audienceResolutions: audienceResolutions,
		indexRebuilds:       indexRebuilds,
		indexDiagnostics:    indexDiagnostics,
		reconcilePasses:     reconcilePasses,
		reconcileDiffs:      reconcileDiffs,
		syncBatchDuration:   syncBatchDuration,
		syncOps:             syncOps,
		cacheLookups:        cacheLookups,
	}
}

// Handler returns the Prometheus scrape handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// RecordAudienceResolution counts one resolution by mode and diagnostic.
func (s *MetricsService) RecordAudienceResolution(mode, diagnostic string) {
	if diagnostic == "" {
		diagnostic = "ok"
	}
	s.audienceResolutions.WithLabelValues(mode, diagnostic).Inc()
}

// RecordIndexRebuild counts one snapshot rebuild.
func (s *MetricsService) RecordIndexRebuild(assignments, violations int) {
	s.indexRebuilds.Inc()
	s.indexDiagnostics.Set(float64(violations))
}

// RecordReconcilePass counts one reconciliation pass and its applied diffs.
func (s *MetricsService) RecordReconcilePass(diffs int) {
	s.reconcilePasses.Inc()
	s.reconcileDiffs.Add(float64(diffs))
}

// RecordSyncBatch observes one batch commit.
func (s *MetricsService) RecordSyncBatch(duration time.Duration, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	s.syncBatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordSyncPass counts the per-op outcomes of one sync run.
func (s *MetricsService) RecordSyncPass(report models.SyncReport) {
	s.syncOps.WithLabelValues("succeeded").Add(float64(report.Succeeded))
	s.syncOps.WithLabelValues("failed").Add(float64(report.Failed))
	s.syncOps.WithLabelValues("skipped").Add(float64(report.Skipped))
}

// RecordCacheLookup counts one audience cache lookup.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	s.cacheLookups.WithLabelValues(outcome).Inc()
}
