package service

import (
	"context"
	"log/slog"
	"reelcast/internal/models"
	"time"
)

// fire runs when a job's timer elapses. It claims the job, runs the
// pipeline and writes the single terminal status.
func (s *SchedulerService) fire(id string) {
	s.mu.Lock()
	rec, ok := s.index[id]
	if !ok || s.closed || rec.running || rec.job.Status != models.StatusPending {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	rec.running = true
	rec.timer = nil
	rec.cancel = cancel
	job := rec.job
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer cancel()

	s.logger.Info("job started", slog.String("job_id", job.ID))
	s.processJob(ctx, job)
}

// processJob runs generate then publish, bounded by the scheduler semaphore.
func (s *SchedulerService) processJob(ctx context.Context, job models.Job) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.handleJobFailure(job, err)
		return
	}
	defer s.sem.Release(1)

	started := time.Now()
	postID, err := s.pipeline.Run(ctx, job)
	if err != nil {
		s.handleJobFailure(job, err)
		return
	}

	if !s.finish(job.ID, models.StatusCompleted, postID, "") {
		return
	}
	s.metrics.IncrementCompletedJobs()
	s.logger.Info("job completed",
		slog.String("job_id", job.ID),
		slog.String("post_id", postID),
		slog.Duration("elapsed", time.Since(started)),
	)
}

// handleJobFailure records the failure; scheduled jobs are never retried.
func (s *SchedulerService) handleJobFailure(job models.Job, err error) {
	reason := UserMessage(err)
	if !s.finish(job.ID, models.StatusFailed, "", reason) {
		return
	}
	s.metrics.IncrementFailedJobs()
	s.logger.Error("job failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
}

// finish applies a terminal status if the job still exists and is pending.
// It reports whether the write happened.
func (s *SchedulerService) finish(id string, status models.JobStatus, postID, reason string) bool {
	s.mu.Lock()
	rec, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Info("job deleted while running; result dropped", slog.String("job_id", id), slog.String("status", string(status)))
		return false
	}
	rec.running = false
	rec.cancel = nil
	if !models.CanTransition(rec.job.Status, status) {
		s.mu.Unlock()
		return false
	}
	rec.job.Status = status
	rec.job.PostID = postID
	rec.job.Error = reason
	rec.job.UpdatedAt = s.now()
	s.mu.Unlock()

	if err := s.repo.UpdateJobStatus(context.Background(), id, status, postID, reason); err != nil {
		s.logger.Error("failed to record job status", slog.String("job_id", id), slog.String("error", err.Error()))
	}
	return true
}
