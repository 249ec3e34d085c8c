package service

import (
	"context"
	"fmt"
	"log/slog"
	"reelcast/internal/repository"
	"time"

	"github.com/robfig/cron/v3"
)

// JobPruner drops finished jobs held outside the history store.
type JobPruner interface {
	PruneFinishedBefore(cutoff time.Time) int
}

// HistorySweeper prunes finished job records older than the retention
// window on a cron schedule, from the history store and from jobs when set.
type HistorySweeper struct {
	repo      repository.JobRepository
	jobs      JobPruner
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

// NewHistorySweeper registers the sweep on schedule (standard cron syntax
// or a descriptor such as "@daily"). It does not start the cron runner.
// retentionDays must be positive; callers keep history forever by not
// creating a sweeper.
func NewHistorySweeper(repo repository.JobRepository, jobs JobPruner, retentionDays int, schedule string, logger *slog.Logger) (*HistorySweeper, error) {
	if retentionDays < 1 {
		return nil, fmt.Errorf("history retention must be at least 1 day, got %d", retentionDays)
	}
	s := &HistorySweeper{
		repo:      repo,
		jobs:      jobs,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
		logger:    logger,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("history sweep failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *HistorySweeper) Start() {
	s.cron.Start()
	s.logger.Info("history sweeper started", slog.Duration("retention", s.retention))
}

// Stop halts the schedule and waits for a running sweep.
func (s *HistorySweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes completed and failed records older than the retention window
// and returns the number of stored records removed.
func (s *HistorySweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	if s.jobs != nil {
		if dropped := s.jobs.PruneFinishedBefore(cutoff); dropped > 0 {
			s.logger.Info("pruned finished jobs", slog.Int("jobs", dropped), slog.Time("cutoff", cutoff))
		}
	}
	n, err := s.repo.PruneFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned job history", slog.Int64("records", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}
