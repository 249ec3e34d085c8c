package service

import (
	"context"
	"encoding/json"
	"errors"
	"reelcast/internal/models"
	"reelcast/internal/session"
	"sync"
	"time"
)

type mockHandle struct {
	mu      sync.Mutex
	postID  string
	err     error
	calls   int
	video   []byte
	cover   []byte
	caption string
}

func (h *mockHandle) PublishVideo(ctx context.Context, video, cover []byte, caption string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	h.video, h.cover, h.caption = video, cover, caption
	if h.err != nil {
		return "", h.err
	}
	return h.postID, nil
}

type mockAuthenticator struct {
	mu     sync.Mutex
	handle session.Handle
	err    error
	calls  []string
}

func (a *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (session.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, username)
	if a.err != nil {
		return nil, a.err
	}
	return a.handle, nil
}

func (a *mockAuthenticator) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type mockDownloader struct {
	data  []byte
	err   error
	calls int
}

func (d *mockDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.data, nil
}

type runnerCall struct {
	version string
	input   map[string]any
}

type mockRunner struct {
	mu      sync.Mutex
	calls   []runnerCall
	outputs []json.RawMessage
	errs    []error
}

func (r *mockRunner) Run(ctx context.Context, version string, input map[string]any) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := len(r.calls)
	r.calls = append(r.calls, runnerCall{version: version, input: input})
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	if i < len(r.outputs) {
		return r.outputs[i], nil
	}
	return nil, errors.New("unexpected prediction")
}

// mockPipeline blocks each run until release is closed when set.
type mockPipeline struct {
	mu      sync.Mutex
	runs    []string
	postID  string
	err     error
	started chan string
	release chan struct{}
}

func (p *mockPipeline) Run(ctx context.Context, job models.Job) (string, error) {
	p.mu.Lock()
	p.runs = append(p.runs, job.ID)
	p.mu.Unlock()
	if p.started != nil {
		p.started <- job.ID
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.err != nil {
		return "", p.err
	}
	return p.postID, nil
}

func (p *mockPipeline) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.runs)
}

// mockRepository records calls in memory.
type mockRepository struct {
	mu       sync.Mutex
	jobs     map[string]*models.Job
	order    []string
	failed   int64
	pruned   time.Time
	pruneN   int64
	createEr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{jobs: make(map[string]*models.Job)}
}

func (r *mockRepository) CreateJob(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createEr != nil {
		return r.createEr
	}
	cp := *job
	r.jobs[job.ID] = &cp
	r.order = append(r.order, job.ID)
	return nil
}

func (r *mockRepository) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus, postID, failureReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok && job.Status == models.StatusPending {
		job.Status = status
		job.PostID = postID
		job.Error = failureReason
	}
	return nil
}

func (r *mockRepository) DeleteJob(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

func (r *mockRepository) ListJobs(ctx context.Context) ([]*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Job
	for _, id := range r.order {
		if job, ok := r.jobs[id]; ok {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockRepository) FailPendingJobs(ctx context.Context, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, job := range r.jobs {
		if job.Status == models.StatusPending {
			job.Status = models.StatusFailed
			job.Error = reason
			n++
		}
	}
	r.failed += n
	return n, nil
}

func (r *mockRepository) PruneFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruned = cutoff
	return r.pruneN, nil
}

func (r *mockRepository) Close() error { return nil }

func (r *mockRepository) get(id string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}
