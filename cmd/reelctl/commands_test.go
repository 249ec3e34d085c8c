package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reelcast/internal/models"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScheduleTime(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := resolveScheduleTime("", 90*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Minute), got)

	got, err = resolveScheduleTime("2030-02-01T10:00:00Z", 0, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)))

	_, err = resolveScheduleTime("2030-02-01T10:00:00Z", time.Minute, now)
	assert.Error(t, err)
	_, err = resolveScheduleTime("", 0, now)
	assert.Error(t, err)
	_, err = resolveScheduleTime("tomorrow", 0, now)
	assert.Error(t, err)
}

func TestRenderJobs(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	out := renderJobs([]models.Job{
		{ID: "a", Prompt: "a cat", Status: models.StatusCompleted, PostID: "media_1", ScheduledTime: now.Add(-time.Hour)},
		{ID: "b", Prompt: strings.Repeat("x", 80), Status: models.StatusFailed, Error: "boom", ScheduledTime: now.Add(-time.Minute)},
		{ID: "c", Prompt: "later", Status: models.StatusPending, ScheduledTime: now.Add(2 * time.Hour)},
	}, false, now)

	assert.Contains(t, out, "media_1")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "(in 2h0m0s)")
	assert.NotContains(t, out, strings.Repeat("x", 80))
	assert.NotContains(t, out, "\x1b[")
}

func TestJobsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schedule", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.JobListResponse{Posts: []models.Job{
			{ID: "job-1", Prompt: "a cat", Status: models.StatusPending, ScheduledTime: time.Now().Add(time.Hour)},
		}})
	}))
	defer srv.Close()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--server", srv.URL, "jobs"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "job-1")
	assert.Contains(t, out.String(), "pending")
}

func TestConnectCommand_ReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Two-factor authentication detected. Please disable 2FA or verify via Instagram app first."})
	}))
	defer srv.Close()

	cmd := newRootCommand()
	cmd.SetIn(strings.NewReader("secret\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", srv.URL, "connect", "-u", "alice", "--password-stdin"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Two-factor authentication detected")
	assert.Contains(t, err.Error(), "http 403")
}
