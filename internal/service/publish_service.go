package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reelcast/internal/metrics"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const msgVerification = "Instagram requires verification. Please login manually first."

// Downloader fetches a remote video into memory.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader downloads over plain HTTP(S) with a size cap.
type HTTPDownloader struct {
	Client   *http.Client
	MaxBytes int64
}

// Download reads the whole body of url, failing past MaxBytes.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download video: http %d", resp.StatusCode)
	}

	limit := d.MaxBytes
	if limit <= 0 {
		limit = 256 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("download video: larger than %d bytes", limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("download video: empty body")
	}
	return data, nil
}

// PublishService downloads a generated video and posts it
type PublishService struct {
	connections *ConnectionService
	downloader  Downloader
	timeout     time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewPublishService creates a new publish service
func NewPublishService(connections *ConnectionService, downloader Downloader, timeout time.Duration, metrics *metrics.Metrics, logger *slog.Logger, opts ...Option) *PublishService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &PublishService{
		connections: connections,
		downloader:  downloader,
		timeout:     timeout,
		metrics:     metrics,
		logger:      logger,
		tracer:      newTracer(opts),
	}
}

// Publish posts the video at videoURL with caption and returns the post id.
// The downloaded bytes double as the cover image.
func (s *PublishService) Publish(ctx context.Context, videoURL, caption string) (postID string, err error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return "", validationError("publish", "Video URL is required")
	}
	if !s.connections.CanPublish() {
		return "", Wrap(ErrConfiguration, "publish", msgMissingCredentials, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := startSpan(ctx, s.tracer, "instagram.publish", attribute.Int("caption.length", len(caption)))
	defer func() { endSpan(span, err) }()

	defer func() {
		if err != nil {
			s.metrics.IncrementPublishErrors()
		}
	}()

	handle, err := s.connections.EnsureSession(ctx)
	if err != nil {
		return "", err
	}

	video, err := s.downloader.Download(ctx, videoURL)
	if err != nil {
		return "", providerError("publish", err)
	}

	postID, err = handle.PublishVideo(ctx, video, video, caption)
	if err != nil {
		s.logger.Warn("instagram publish failed", slog.String("error", err.Error()))
		return "", classifyPublishError(err)
	}

	s.metrics.IncrementPostsPublished()
	s.logger.Info("video posted", slog.String("post_id", postID), slog.Int("bytes", len(video)))
	return postID, nil
}
