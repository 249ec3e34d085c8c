package service

import (
	"context"
	"errors"
	"log/slog"
	"reelcast/internal/metrics"
	"reelcast/internal/models"
	"reelcast/internal/repository"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const restartFailureReason = "interrupted by restart"

// ErrSchedulerClosed is returned by Schedule after Close.
var ErrSchedulerClosed = errors.New("scheduler is shut down")

// scheduledJob pairs a job with its cancellable timer and in-flight state.
type scheduledJob struct {
	job     models.Job
	timer   *time.Timer
	running bool
	cancel  context.CancelFunc
}

// SchedulerService keeps the ordered in-memory job list and fires each
// pending job once at its scheduled time.
type SchedulerService struct {
	mu    sync.Mutex
	jobs  []*scheduledJob
	index map[string]*scheduledJob

	pipeline Pipeline
	repo     repository.JobRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
	sem      *semaphore.Weighted
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// SchedulerOption customizes the scheduler.
type SchedulerOption func(*SchedulerService)

// WithClock overrides the time source used for validation and timestamps.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *SchedulerService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxConcurrent bounds how many jobs run their pipeline at once.
func WithMaxConcurrent(n int) SchedulerOption {
	return func(s *SchedulerService) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewSchedulerService creates a new scheduler
func NewSchedulerService(pipeline Pipeline, repo repository.JobRepository, metrics *metrics.Metrics, logger *slog.Logger, opts ...SchedulerOption) *SchedulerService {
	if repo == nil {
		repo = repository.NopRepository{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &SchedulerService{
		index:    make(map[string]*scheduledJob),
		pipeline: pipeline,
		repo:     repo,
		metrics:  metrics,
		logger:   logger,
		sem:      semaphore.NewWeighted(2),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads recorded jobs from the history store. Jobs still pending
// from a previous process are marked failed; their timers died with it.
func (s *SchedulerService) Restore(ctx context.Context) error {
	n, err := s.repo.FailPendingJobs(ctx, restartFailureReason)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("pending jobs from previous run marked failed", slog.Int64("count", n))
	}
	jobs, err := s.repo.ListJobs(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range jobs {
		if _, exists := s.index[job.ID]; exists {
			continue
		}
		rec := &scheduledJob{job: *job}
		s.jobs = append(s.jobs, rec)
		s.index[job.ID] = rec
	}
	s.logger.Info("job history restored", slog.Int("jobs", len(jobs)))
	return nil
}

// Schedule accepts a job to run at scheduledTime, which must be strictly
// in the future.
func (s *SchedulerService) Schedule(ctx context.Context, prompt, caption string, scheduledTime time.Time) (*models.Job, error) {
	if strings.TrimSpace(prompt) == "" || scheduledTime.IsZero() {
		return nil, validationError("schedule", "Prompt and scheduled time are required")
	}
	now := s.now()
	if !scheduledTime.After(now) {
		return nil, validationError("schedule", "Scheduled time must be in the future")
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	job := models.Job{
		ID:            id.String(),
		Prompt:        prompt,
		Caption:       caption,
		ScheduledTime: scheduledTime,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Recorded before the timer is armed so the terminal update always
	// finds the row.
	if err := s.repo.CreateJob(ctx, &job); err != nil {
		s.logger.Error("failed to record job", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = s.repo.DeleteJob(ctx, job.ID)
		return nil, ErrSchedulerClosed
	}
	rec := &scheduledJob{job: job}
	s.jobs = append(s.jobs, rec)
	s.index[job.ID] = rec
	// The callback takes s.mu, so it cannot observe rec before timer is set.
	rec.timer = time.AfterFunc(time.Until(scheduledTime), func() { s.fire(job.ID) })
	s.mu.Unlock()

	s.metrics.IncrementScheduledJobs()
	s.logger.Info("job scheduled",
		slog.String("job_id", job.ID),
		slog.Time("scheduled_time", scheduledTime),
		slog.Duration("delay", scheduledTime.Sub(now)),
	)
	return &job, nil
}

// List returns a copy of all jobs in insertion order.
func (s *SchedulerService) List() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, 0, len(s.jobs))
	for _, rec := range s.jobs {
		out = append(out, rec.job)
	}
	return out
}

// Get returns a copy of one job.
func (s *SchedulerService) Get(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.index[id]
	if !ok {
		return models.Job{}, Wrap(ErrJobNotFound, "get job", "Scheduled post not found", nil)
	}
	return rec.job, nil
}

// Delete cancels the job's timer and removes it from the listing. A job
// whose pipeline is already running has its context cancelled and its
// result is dropped. Unknown ids are ignored.
func (s *SchedulerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	rec, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	stoppedBeforeFire := false
	if rec.timer != nil {
		stoppedBeforeFire = rec.timer.Stop()
		rec.timer = nil
	}
	if rec.cancel != nil {
		rec.cancel()
	}
	wasRunning := rec.running
	delete(s.index, id)
	for i, candidate := range s.jobs {
		if candidate == rec {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if stoppedBeforeFire || wasRunning {
		s.metrics.IncrementCancelledJobs()
	}
	if err := s.repo.DeleteJob(ctx, id); err != nil {
		s.logger.Error("failed to delete job record", slog.String("job_id", id), slog.String("error", err.Error()))
	}
	s.logger.Info("job deleted", slog.String("job_id", id), slog.Bool("was_running", wasRunning))
	return nil
}

// Close stops all timers, cancels running pipelines and waits for them.
// PruneFinishedBefore drops completed and failed jobs last updated before
// cutoff from the in-memory list and returns how many were removed.
func (s *SchedulerService) PruneFinishedBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.jobs[:0]
	removed := 0
	for _, rec := range s.jobs {
		if rec.job.Status.IsTerminal() && rec.job.UpdatedAt.Before(cutoff) {
			delete(s.index, rec.job.ID)
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept
	return removed
}

func (s *SchedulerService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, rec := range s.jobs {
		if rec.timer != nil {
			rec.timer.Stop()
			rec.timer = nil
		}
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
