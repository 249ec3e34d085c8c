package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reelcast/internal/logging"
	"reelcast/internal/metrics"
	"reelcast/internal/models"
	"reelcast/internal/service"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	username     string
	err          error
	status       models.ConnectionStatus
	disconnected bool
}

func (c *stubConnector) Connect(ctx context.Context, username, password string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.username = username
	return username, nil
}

func (c *stubConnector) Disconnect() { c.disconnected = true }

func (c *stubConnector) Status() models.ConnectionStatus { return c.status }

type stubVideos struct {
	url    string
	postID string
	err    error
	style  string
}

func (v *stubVideos) Generate(ctx context.Context, prompt, style, duration string) (string, error) {
	v.style = style
	return v.url, v.err
}

func (v *stubVideos) Publish(ctx context.Context, videoURL, caption string) (string, error) {
	return v.postID, v.err
}

type stubScheduler struct {
	jobs    []models.Job
	err     error
	deleted []string
	at      time.Time
}

func (s *stubScheduler) Schedule(ctx context.Context, prompt, caption string, at time.Time) (*models.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.at = at
	job := models.Job{ID: "job-1", Prompt: prompt, Caption: caption, ScheduledTime: at, Status: models.StatusPending}
	s.jobs = append(s.jobs, job)
	return &job, nil
}

func (s *stubScheduler) List() []models.Job { return s.jobs }

func (s *stubScheduler) Get(id string) (models.Job, error) {
	for _, job := range s.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return models.Job{}, service.Wrap(service.ErrJobNotFound, "get job", "Scheduled post not found", nil)
}

func (s *stubScheduler) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fixture struct {
	conn   *stubConnector
	videos *stubVideos
	sched  *stubScheduler
	router http.Handler
}

func newFixture() *fixture {
	logger := logging.NewNop()
	f := &fixture{conn: &stubConnector{}, videos: &stubVideos{}, sched: &stubScheduler{}}
	f.router = NewRouter(Handlers{
		Connections: NewConnectionHandler(f.conn, logger),
		Videos:      NewVideoHandler(f.videos, f.videos, logger),
		Jobs:        NewJobHandler(f.sched, metrics.NewMetrics(), logger),
		CORSOrigin:  "*",
		Logger:      logger,
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestConnect(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/connection", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Successfully connected to Instagram", body["message"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConnect_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.Wrap(service.ErrValidation, "connect", "Username and password are required", nil), http.StatusBadRequest},
		{service.Wrap(service.ErrInvalidCredentials, "connect", "Invalid username or password", nil), http.StatusUnauthorized},
		{service.Wrap(service.ErrAuthChallenge, "connect", "Two-factor authentication detected.", nil), http.StatusForbidden},
		{service.Wrap(service.ErrProvider, "connect", "timeout", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		f := newFixture()
		f.conn.err = tt.err
		rec := f.do(http.MethodPost, "/connection", `{"username":"bob","password":"wrong"}`)
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, service.UserMessage(tt.err), decodeBody(t, rec)["error"])
	}
}

func TestConnect_MalformedJSON(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/connection", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeBody(t, rec)["error"])
}

func TestConnectionStatus(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/connection/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connected":false,"username":null}`, rec.Body.String())

	name := "alice"
	f.conn.status = models.ConnectionStatus{Connected: true, Username: &name}
	rec = f.do(http.MethodGet, "/connection/status", "")
	assert.JSONEq(t, `{"connected":true,"username":"alice"}`, rec.Body.String())
}

func TestDisconnect(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/connection/disconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.conn.disconnected)
	assert.JSONEq(t, `{"success":true,"message":"Disconnected from Instagram"}`, rec.Body.String())
}

func TestGenerateVideo(t *testing.T) {
	f := newFixture()
	f.videos.url = "https://x/v.mp4"
	rec := f.do(http.MethodPost, "/videos", `{"prompt":"a cat","style":"anime","duration":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"videoUrl":"https://x/v.mp4"}`, rec.Body.String())
	assert.Equal(t, "anime", f.videos.style)
	assert.Contains(t, rec.Header().Get("Server-Timing"), "generate")
}

func TestGenerateVideo_ConfigError(t *testing.T) {
	f := newFixture()
	f.videos.err = service.Wrap(service.ErrConfiguration, "generate", "REPLICATE_API_TOKEN not configured", nil)
	rec := f.do(http.MethodPost, "/videos", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "REPLICATE_API_TOKEN not configured", decodeBody(t, rec)["error"])
}

func TestPublish(t *testing.T) {
	f := newFixture()
	f.videos.postID = "media_1"
	rec := f.do(http.MethodPost, "/posts", `{"videoUrl":"https://x/v.mp4","caption":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Video posted successfully to Instagram","postId":"media_1"}`, rec.Body.String())

	f.videos.err = service.Wrap(service.ErrVerificationRequired, "publish", "Instagram requires verification. Please login manually first.", nil)
	rec = f.do(http.MethodPost, "/posts", `{"videoUrl":"https://x/v.mp4"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSchedule(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/schedule", `{"prompt":"a cat","caption":"c","scheduledTime":"2030-01-02T03:04:05Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Post scheduled successfully", resp.Message)
	require.NotNil(t, resp.Post)
	assert.Equal(t, "job-1", resp.Post.ID)
	assert.Equal(t, models.StatusPending, resp.Post.Status)
	assert.True(t, f.sched.at.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestSchedule_Validation(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/schedule", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt and scheduled time are required", decodeBody(t, rec)["error"])

	rec = f.do(http.MethodPost, "/schedule", `{"prompt":"a cat","scheduledTime":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.sched.err = service.Wrap(service.ErrValidation, "schedule", "Scheduled time must be in the future", nil)
	rec = f.do(http.MethodPost, "/schedule", `{"prompt":"a cat","scheduledTime":"2020-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Scheduled time must be in the future", decodeBody(t, rec)["error"])
}

func TestScheduleListGetDelete(t *testing.T) {
	f := newFixture()
	f.sched.jobs = []models.Job{{ID: "a", Prompt: "p", Status: models.StatusCompleted, PostID: "m1"}}

	rec := f.do(http.MethodGet, "/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.JobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "m1", list.Posts[0].PostID)

	rec = f.do(http.MethodGet, "/schedule/a", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodGet, "/schedule/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/schedule/missing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Post deleted successfully"}`, rec.Body.String())
	assert.Equal(t, []string{"missing"}, f.sched.deleted)
}

func TestMethodNotAllowedAndPreflight(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/videos", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(http.MethodOptions, "/videos", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "scheduled_jobs")
}

func TestParseScheduledTime(t *testing.T) {
	got, ok := parseScheduledTime("2030-05-06T07:08:09.5+02:00")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2030, 5, 6, 5, 8, 9, 500000000, time.UTC)))

	got, ok = parseScheduledTime("2030-05-06T07:08")
	require.True(t, ok)
	assert.Equal(t, time.Local, got.Location())

	_, ok = parseScheduledTime("06/05/2030")
	assert.False(t, ok)
}
