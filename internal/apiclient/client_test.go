package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reelcast/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Schedule(t *testing.T) {
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/schedule", r.URL.Path)
		var req models.ScheduleRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2030-01-02T03:04:05Z", req.ScheduledTime)
		_ = json.NewEncoder(w).Encode(models.ScheduleResponse{
			Success: true,
			Post:    &models.Job{ID: "j1", Prompt: req.Prompt, ScheduledTime: at, Status: models.StatusPending},
		})
	}))
	defer srv.Close()

	job, err := New(srv.URL+"/", srv.Client()).Schedule(context.Background(), "a cat", "", at)
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "a cat", job.Prompt)
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid username or password"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).Connect(context.Background(), "bob", "wrong")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid username or password (http 401)", err.Error())
}

func TestClient_CancelEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(models.SuccessResponse{Success: true})
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, srv.Client()).Cancel(context.Background(), "a/b"))
	assert.Equal(t, "/schedule/a%2Fb", gotPath)
}
