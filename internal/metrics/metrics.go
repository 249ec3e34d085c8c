package metrics

import (
	"sync"
)

// Metrics tracks system metrics
type Metrics struct {
	mu sync.RWMutex

	scheduledJobs     int64
	completedJobs     int64
	failedJobs        int64
	cancelledJobs     int64
	videosGenerated   int64
	generationErrors  int64
	postsPublished    int64
	publishErrors     int64
	connectionsOpened int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
}

// IncrementScheduledJobs increments the scheduled jobs counter
func (m *Metrics) IncrementScheduledJobs() { m.inc(&m.scheduledJobs) }

// IncrementCompletedJobs increments the completed jobs counter
func (m *Metrics) IncrementCompletedJobs() { m.inc(&m.completedJobs) }

// IncrementFailedJobs increments the failed jobs counter
func (m *Metrics) IncrementFailedJobs() { m.inc(&m.failedJobs) }

// IncrementCancelledJobs increments the counter of jobs deleted before they ran
func (m *Metrics) IncrementCancelledJobs() { m.inc(&m.cancelledJobs) }

// IncrementVideosGenerated increments the generated videos counter
func (m *Metrics) IncrementVideosGenerated() { m.inc(&m.videosGenerated) }

// IncrementGenerationErrors increments the failed generations counter
func (m *Metrics) IncrementGenerationErrors() { m.inc(&m.generationErrors) }

// IncrementPostsPublished increments the published posts counter
func (m *Metrics) IncrementPostsPublished() { m.inc(&m.postsPublished) }

// IncrementPublishErrors increments the failed publishes counter
func (m *Metrics) IncrementPublishErrors() { m.inc(&m.publishErrors) }

// IncrementConnections increments the successful logins counter
func (m *Metrics) IncrementConnections() { m.inc(&m.connectionsOpened) }

// GetSnapshot returns a snapshot of all metrics
func (m *Metrics) GetSnapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"scheduled_jobs":     m.scheduledJobs,
		"completed_jobs":     m.completedJobs,
		"failed_jobs":        m.failedJobs,
		"cancelled_jobs":     m.cancelledJobs,
		"videos_generated":   m.videosGenerated,
		"generation_errors":  m.generationErrors,
		"posts_published":    m.postsPublished,
		"publish_errors":     m.publishErrors,
		"connections_opened": m.connectionsOpened,
	}
}
