package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/internal/repository"
	"github.com/smart-student/assignment-engine/pkg/config"
)

type syncStore interface {
	ApplyBatch(ctx context.Context, batch []models.UpsertOp) error
}

// SyncService applies upsert operations to the persistent store in bounded
// batches. Operations are deduplicated per document id before batching, so
// two writes to the same document within one run are serialized
// last-writer-wins; independent batches run concurrently up to the
// configured limit. Transient store failures are retried with backoff,
// permanent ones abort the remaining batches immediately.
type SyncService struct {
	store   syncStore
	metrics *MetricsService
	cfg     config.SyncConfig
	logger  *zap.Logger
}

// NewSyncService constructs the batch sync writer.
func NewSyncService(store syncStore, metrics *MetricsService, cfg config.SyncConfig, logger *zap.Logger) *SyncService {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{store: store, metrics: metrics, cfg: cfg, logger: logger}
}

// Apply runs one sync pass over the given operations and reports per-key
// outcomes. Malformed operations are skipped and counted, never fatal.
// Because document ids are deterministic, re-running the same pass after a
// partial failure is safe.
func (s *SyncService) Apply(ctx context.Context, ops []models.UpsertOp) models.SyncReport {
	report := models.SyncReport{Processed: len(ops)}

	valid := make([]models.UpsertOp, 0, len(ops))
	for _, op := range ops {
		if !validOp(op) {
			report.Skipped++
			continue
		}
		valid = append(valid, op)
	}

	deduped := dedupeByDocID(valid)
	report.Enqueued = len(deduped)
	if len(deduped) == 0 {
		return report
	}

	batches := chunkOps(deduped, s.cfg.MaxBatchSize)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		aborted bool
	)
	sem := make(chan struct{}, s.cfg.Concurrency)

	for _, batch := range batches {
		mu.Lock()
		skip := aborted
		mu.Unlock()
		if skip {
			mu.Lock()
			report.Failed += len(batch)
			for _, op := range batch {
				report.FailedKeys = append(report.FailedKeys, op.DocID)
			}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []models.UpsertOp) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.commitWithRetry(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Succeeded += len(batch)
				return
			}
			report.Failed += len(batch)
			for _, op := range batch {
				report.FailedKeys = append(report.FailedKeys, op.DocID)
			}
			if isPermanentStoreError(err) {
				aborted = true
				s.logger.Error("permanent store failure, aborting remaining batches", zap.Error(err))
			}
		}(batch)
	}
	wg.Wait()

	sort.Strings(report.FailedKeys)
	if s.metrics != nil {
		s.metrics.RecordSyncPass(report)
	}
	s.logger.Info("sync pass finished",
		zap.Int("processed", report.Processed),
		zap.Int("enqueued", report.Enqueued),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report
}

func (s *SyncService) commitWithRetry(ctx context.Context, batch []models.UpsertOp) error {
	var err error
	backoff := s.cfg.RetryBackoff
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		start := time.Now()
		err = s.store.ApplyBatch(ctx, batch)
		if s.metrics != nil {
			s.metrics.RecordSyncBatch(time.Since(start), err == nil)
		}
		if err == nil {
			return nil
		}
		if isPermanentStoreError(err) || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("sync batch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		if attempt < s.cfg.MaxRetries {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}
	return err
}

func validOp(op models.UpsertOp) bool {
	if op.DocID == "" || op.Kind != repository.UpsertKindGrade || len(op.Payload) == 0 {
		return false
	}
	var record models.GradeRecord
	return json.Unmarshal(op.Payload, &record) == nil
}

// dedupeByDocID keeps the most recent write per document id, preserving a
// deterministic order for batching.
func dedupeByDocID(ops []models.UpsertOp) []models.UpsertOp {
	latest := make(map[string]models.UpsertOp, len(ops))
	for _, op := range ops {
		if held, ok := latest[op.DocID]; ok && held.UpdatedAt.After(op.UpdatedAt) {
			continue
		}
		latest[op.DocID] = op
	}
	out := make([]models.UpsertOp, 0, len(latest))
	for _, op := range latest {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

func chunkOps(ops []models.UpsertOp, size int) [][]models.UpsertOp {
	var batches [][]models.UpsertOp
	for start := 0; start < len(ops); start += size {
		end := start + size
		if end > len(ops) {
			end = len(ops)
		}
		batches = append(batches, ops[start:end])
	}
	return batches
}

// isPermanentStoreError distinguishes failures that no amount of retrying
// will fix (bad credentials, revoked privileges) from transient connection
// or resource problems.
func isPermanentStoreError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "28" { // invalid authorization specification
			return true
		}
		if pqErr.Code == "42501" { // insufficient privilege
			return true
		}
	}
	// Connection-class failures (net errors, driver.ErrBadConn, pq class 08)
	// stay retryable.
	return false
}
