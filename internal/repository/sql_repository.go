package repository

import (
	"context"
	"database/sql"
	"fmt"
	"reelcast/internal/models"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sqlRepository implements JobRepository over database/sql. The dialect only
// differs in placeholder syntax, so queries are written with ? and rebound.
type sqlRepository struct {
	db          *sql.DB
	placeholder func(n int) string

	// insertMu serializes inserts so each row takes the next seq.
	insertMu sync.Mutex
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func (r *sqlRepository) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString(r.placeholder(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Close closes the database connection
func (r *sqlRepository) Close() error {
	return r.db.Close()
}

func (r *sqlRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scheduled_jobs (
		id TEXT PRIMARY KEY,
		prompt TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		scheduled_time BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		post_id TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		seq BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_status ON scheduled_jobs(status);
	CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_seq ON scheduled_jobs(seq);
	`
	_, err := r.db.Exec(schema)
	return err
}

// CreateJob records a newly scheduled job
func (r *sqlRepository) CreateJob(ctx context.Context, job *models.Job) error {
	query := r.rebind(`
		INSERT INTO scheduled_jobs (id, prompt, caption, scheduled_time, status, post_id, failure_reason, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM scheduled_jobs), ?, ?)
	`)

	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}

	r.insertMu.Lock()
	defer r.insertMu.Unlock()
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.Prompt,
		job.Caption,
		job.ScheduledTime.UnixNano(),
		string(job.Status),
		job.PostID,
		job.Error,
		job.CreatedAt.UnixNano(),
		job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJobStatus writes a terminal status. Only pending rows change, so a
// second terminal write is a no-op.
func (r *sqlRepository) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, postID, failureReason string) error {
	query := r.rebind(`
		UPDATE scheduled_jobs
		SET status = ?, post_id = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`)

	_, err := r.db.ExecContext(ctx, query, string(status), postID, failureReason, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// DeleteJob removes a job record; unknown ids are ignored
func (r *sqlRepository) DeleteJob(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM scheduled_jobs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// ListJobs retrieves all recorded jobs in insertion order
func (r *sqlRepository) ListJobs(ctx context.Context) ([]*models.Job, error) {
	query := `
		SELECT id, prompt, caption, scheduled_time, status, post_id, failure_reason, created_at, updated_at
		FROM scheduled_jobs
		ORDER BY seq ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var job models.Job
		var status string
		var scheduledTime, createdAt, updatedAt int64

		err := rows.Scan(
			&job.ID,
			&job.Prompt,
			&job.Caption,
			&scheduledTime,
			&status,
			&job.PostID,
			&job.Error,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		job.Status = models.JobStatus(status)
		job.ScheduledTime = time.Unix(0, scheduledTime)
		job.CreatedAt = time.Unix(0, createdAt)
		job.UpdatedAt = time.Unix(0, updatedAt)
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// FailPendingJobs marks every pending record failed. It runs at boot, when
// no timer from a previous process can still fire.
func (r *sqlRepository) FailPendingJobs(ctx context.Context, reason string) (int64, error) {
	query := r.rebind(`
		UPDATE scheduled_jobs
		SET status = 'failed', failure_reason = ?, updated_at = ?
		WHERE status = 'pending'
	`)
	res, err := r.db.ExecContext(ctx, query, reason, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to fail pending jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count failed jobs: %w", err)
	}
	return n, nil
}

// PruneFinishedBefore deletes terminal records last updated before cutoff
func (r *sqlRepository) PruneFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.rebind(`
		DELETE FROM scheduled_jobs
		WHERE status IN ('completed', 'failed') AND updated_at < ?
	`)
	res, err := r.db.ExecContext(ctx, query, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned jobs: %w", err)
	}
	return n, nil
}
