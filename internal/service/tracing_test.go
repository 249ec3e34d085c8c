package service

import (
	"context"
	"encoding/json"
	"errors"
	"reelcast/internal/logging"
	"reelcast/internal/metrics"
	"reelcast/internal/session"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder() (*tracetest.SpanRecorder, trace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func endedSpan(t *testing.T, rec *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range rec.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not recorded", "no ended span named %q", name)
	return nil
}

// contextRunner remembers whether each prediction ran inside a recording span.
type contextRunner struct {
	mockRunner
	mu        sync.Mutex
	recording []bool
}

func (r *contextRunner) Run(ctx context.Context, version string, input map[string]any) (json.RawMessage, error) {
	r.mu.Lock()
	r.recording = append(r.recording, trace.SpanFromContext(ctx).IsRecording())
	r.mu.Unlock()
	return r.mockRunner.Run(ctx, version, input)
}

func TestVideoService_GenerateSpan(t *testing.T) {
	rec, tp := newRecorder()
	runner := &contextRunner{mockRunner: mockRunner{outputs: []json.RawMessage{
		json.RawMessage(`["https://x/still.png"]`),
		json.RawMessage(`"https://x/v.mp4"`),
	}}}
	svc := NewVideoService(runner, replicateConfig(), metrics.NewMetrics(), logging.NewNop(), WithTracerProvider(tp))

	_, err := svc.Generate(context.Background(), "a cat", "anime", "3")
	require.NoError(t, err)

	span := endedSpan(t, rec, "video.generate")
	assert.Equal(t, codes.Unset, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("video.style", "anime"))
	assert.Equal(t, []bool{true, true}, runner.recording)
}

func TestVideoService_GenerateSpanRecordsError(t *testing.T) {
	rec, tp := newRecorder()
	runner := &mockRunner{errs: []error{errors.New("gpu on fire")}}
	svc := NewVideoService(runner, replicateConfig(), metrics.NewMetrics(), logging.NewNop(), WithTracerProvider(tp))

	_, err := svc.Generate(context.Background(), "a cat", "", "")
	require.Error(t, err)

	span := endedSpan(t, rec, "video.generate")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.NotEmpty(t, span.Events(), "error event recorded")
}

func TestPublishService_LoginSpanNestsUnderPublish(t *testing.T) {
	rec, tp := newRecorder()
	handle := &mockHandle{postID: "media_9"}
	auth := &mockAuthenticator{handle: handle}
	m := metrics.NewMetrics()
	conn := NewConnectionService(auth, session.NewStore(), Credentials{Username: "envuser", Password: "envpass"}, m, logging.NewNop(), WithTracerProvider(tp))
	svc := NewPublishService(conn, &mockDownloader{data: []byte("v")}, time.Minute, m, logging.NewNop(), WithTracerProvider(tp))

	_, err := svc.Publish(context.Background(), "https://x/v.mp4", "hello")
	require.NoError(t, err)

	publish := endedSpan(t, rec, "instagram.publish")
	login := endedSpan(t, rec, "instagram.login")
	assert.Equal(t, codes.Unset, publish.Status().Code)
	assert.Equal(t, codes.Unset, login.Status().Code)
	assert.Equal(t, publish.SpanContext().SpanID(), login.Parent().SpanID())
}

func TestPublishService_SpansRecordLoginFailure(t *testing.T) {
	rec, tp := newRecorder()
	auth := &mockAuthenticator{err: errors.New("bad_password")}
	m := metrics.NewMetrics()
	conn := NewConnectionService(auth, session.NewStore(), Credentials{Username: "envuser", Password: "nope"}, m, logging.NewNop(), WithTracerProvider(tp))
	svc := NewPublishService(conn, &mockDownloader{data: []byte("v")}, time.Minute, m, logging.NewNop(), WithTracerProvider(tp))

	_, err := svc.Publish(context.Background(), "https://x/v.mp4", "")
	require.Error(t, err)

	assert.Equal(t, codes.Error, endedSpan(t, rec, "instagram.login").Status().Code)
	assert.Equal(t, codes.Error, endedSpan(t, rec, "instagram.publish").Status().Code)
}

func TestServicesWithoutProviderDoNotRecord(t *testing.T) {
	runner := &contextRunner{mockRunner: mockRunner{outputs: []json.RawMessage{
		json.RawMessage(`"https://x/still.png"`),
		json.RawMessage(`"https://x/v.mp4"`),
	}}}
	svc := NewVideoService(runner, replicateConfig(), metrics.NewMetrics(), logging.NewNop())

	_, err := svc.Generate(context.Background(), "a cat", "", "")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, runner.recording)
}
