package repository

import (
	"context"
	"fmt"
	"reelcast/internal/models"
	"time"
)

// JobRepository defines the interface for job history persistence. It
// records jobs for listing across restarts; it does not re-arm timers.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, postID, failureReason string) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]*models.Job, error)
	FailPendingJobs(ctx context.Context, reason string) (int64, error)
	PruneFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Open returns the repository for driver. An empty driver yields a
// repository that records nothing.
func Open(driver, dsn string) (JobRepository, error) {
	switch driver {
	case "":
		return NopRepository{}, nil
	case "sqlite":
		return NewSQLiteRepository(dsn)
	case "postgres":
		return NewPostgresRepository(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
}

// NopRepository discards every write and lists nothing.
type NopRepository struct{}

func (NopRepository) CreateJob(ctx context.Context, job *models.Job) error { return nil }

func (NopRepository) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, postID, failureReason string) error {
	return nil
}

func (NopRepository) DeleteJob(ctx context.Context, id string) error { return nil }

func (NopRepository) ListJobs(ctx context.Context) ([]*models.Job, error) { return nil, nil }

func (NopRepository) FailPendingJobs(ctx context.Context, reason string) (int64, error) {
	return 0, nil
}

func (NopRepository) PruneFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (NopRepository) Close() error { return nil }
