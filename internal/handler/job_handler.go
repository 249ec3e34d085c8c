package handler

import (
	"context"
	"log/slog"
	"net/http"
	"reelcast/internal/metrics"
	"reelcast/internal/models"
	"strings"
	"time"
)

// Scheduler is the job scheduler as seen by the HTTP layer.
type Scheduler interface {
	Schedule(ctx context.Context, prompt, caption string, scheduledTime time.Time) (*models.Job, error)
	List() []models.Job
	Get(id string) (models.Job, error)
	Delete(ctx context.Context, id string) error
}

// Layouts accepted for scheduledTime besides RFC 3339; these are read in
// the server's local zone, as an HTML datetime-local input produces them.
var localTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// JobHandler handles HTTP requests for scheduled posts
type JobHandler struct {
	scheduler Scheduler
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(scheduler Scheduler, metrics *metrics.Metrics, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		scheduler: scheduler,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateJob handles POST /schedule
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.ScheduledTime) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Prompt and scheduled time are required")
		return
	}
	at, ok := parseScheduledTime(req.ScheduledTime)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Scheduled time is not a valid date")
		return
	}

	job, err := h.scheduler.Schedule(r.Context(), req.Prompt, req.Caption, at)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.ScheduleResponse{
		Success: true,
		Message: "Post scheduled successfully",
		Post:    job,
	})
}

// ListJobs handles GET /schedule
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, models.JobListResponse{Posts: h.scheduler.List()})
}

// GetJob handles GET /schedule/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.scheduler.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.JobResponse{Post: &job})
}

// DeleteJob handles DELETE /schedule/{id}
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Post deleted successfully",
	})
}

// GetMetrics handles GET /metrics
func (h *JobHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.metrics.GetSnapshot())
}

func parseScheduledTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
