package snapshots

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/SushiIsYummy/blog-api/internal/metrics"
)

// Scheduler periodically rematerializes dirty snapshot log entries and
// purges expired ones. A run processes dirty entries in bounded batches
// until none remain with created_at at or before the run's start time;
// entries dirtied mid-run wait for the next tick. Runs never overlap.
type Scheduler struct {
	repo      Repository
	interval  time.Duration
	grace     time.Duration
	batchSize int
	logger    *slog.Logger
	running   atomic.Bool
}

// NewScheduler creates a snapshot refresh scheduler. Zero values for
// interval, grace, and batchSize fall back to the package defaults.
func NewScheduler(repo Repository, interval, grace time.Duration, batchSize int, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		repo:      repo,
		interval:  interval,
		grace:     grace,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks, executing a refresh run every interval until ctx is canceled.
// Run errors are logged and do not stop the loop; unprocessed dirty
// entries simply wait for the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("snapshot scheduler started",
		"interval", s.interval,
		"grace_period", s.grace,
		"batch_size", s.batchSize)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("snapshot refresh run failed", "error", err)
			}
		}
	}
}

// Start launches Run on its own goroutine
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

// RunOnce executes a single refresh run: rematerialize every dirty entry
// created at or before the run's start, then purge expired entries.
// Returns ErrRunInProgress if a previous run is still executing.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now().UTC()
	refreshed := 0

	for {
		entries, err := s.repo.ListDirty(ctx, start, s.batchSize)
		if err != nil {
			metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to list dirty snapshot entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		succeeded := 0
		for _, entry := range entries {
			if ctx.Err() != nil {
				metrics.SnapshotRunsTotal.WithLabelValues("canceled").Inc()
				return ctx.Err()
			}

			// A single failed materialization must not abort the batch
			if err := s.repo.Refresh(ctx, entry, s.grace); err != nil {
				metrics.SnapshotRefreshesTotal.WithLabelValues("error").Inc()
				s.logger.Error("failed to refresh snapshot entry",
					"error", err,
					"entry", entry.ID,
					"comment", entry.CommentID)
				continue
			}
			metrics.SnapshotRefreshesTotal.WithLabelValues("ok").Inc()
			succeeded++
			refreshed++
		}

		// Every entry in the batch failed; bail out rather than spin on
		// the same rows until the store recovers
		if succeeded == 0 {
			metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("snapshot refresh made no progress on a batch of %d entries", len(entries))
		}
	}

	purged, err := s.repo.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		metrics.SnapshotRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to purge expired snapshot entries: %w", err)
	}
	metrics.SnapshotPurgedTotal.Add(float64(purged))
	metrics.SnapshotRunsTotal.WithLabelValues("ok").Inc()

	s.logger.Info("snapshot refresh run completed",
		"refreshed", refreshed,
		"purged", purged,
		"duration", time.Since(start))

	return nil
}
