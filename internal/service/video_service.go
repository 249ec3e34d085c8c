package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reelcast/internal/config"
	"reelcast/internal/metrics"
	"reelcast/internal/replicate"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultStyle    = "cinematic"
	DefaultDuration = "3"

	negativePrompt = "ugly, blurry, low quality"
	stillWidth     = 1024
	stillHeight    = 576
)

// PredictionRunner runs one model prediction to completion.
type PredictionRunner interface {
	Run(ctx context.Context, version string, input map[string]any) (json.RawMessage, error)
}

// FrameCount maps a requested duration in seconds to the number of frames
// the video model renders. Unknown durations get the shortest clip.
func FrameCount(duration string) int {
	switch strings.TrimSpace(duration) {
	case "5":
		return 25
	default:
		return 14
	}
}

// EnhancePrompt prefixes prompt with the visual style.
func EnhancePrompt(style, prompt string) string {
	return fmt.Sprintf("%s style: %s", style, prompt)
}

// VideoService turns a prompt into a short video: a still is rendered
// first and then animated.
type VideoService struct {
	runner  PredictionRunner
	cfg     config.Replicate
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewVideoService creates a new video generation service
func NewVideoService(runner PredictionRunner, cfg config.Replicate, metrics *metrics.Metrics, logger *slog.Logger, opts ...Option) *VideoService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &VideoService{
		runner:  runner,
		cfg:     cfg,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		tracer:  newTracer(opts),
	}
}

// Generate renders a video for prompt and returns its URL. Empty style and
// duration fall back to DefaultStyle and DefaultDuration.
func (s *VideoService) Generate(ctx context.Context, prompt, style, duration string) (videoURL string, err error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", validationError("generate", "Prompt is required")
	}
	if strings.TrimSpace(s.cfg.APIToken) == "" {
		return "", Wrap(ErrConfiguration, "generate", "REPLICATE_API_TOKEN not configured", nil)
	}
	if strings.TrimSpace(style) == "" {
		style = DefaultStyle
	}
	if strings.TrimSpace(duration) == "" {
		duration = DefaultDuration
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := startSpan(ctx, s.tracer, "video.generate",
		attribute.String("video.style", style),
		attribute.String("video.duration", duration),
	)
	defer func() { endSpan(span, err) }()

	started := time.Now()
	enhanced := EnhancePrompt(style, prompt)

	still, err := s.renderStill(ctx, enhanced)
	if err != nil {
		s.metrics.IncrementGenerationErrors()
		return "", providerError("generate", err)
	}

	videoURL, err = s.animate(ctx, still, FrameCount(duration))
	if err != nil {
		s.metrics.IncrementGenerationErrors()
		return "", providerError("generate", err)
	}

	s.metrics.IncrementVideosGenerated()
	s.logger.Info("video generated",
		slog.String("style", style),
		slog.String("duration", duration),
		slog.Duration("elapsed", time.Since(started)),
	)
	return videoURL, nil
}

func (s *VideoService) renderStill(ctx context.Context, prompt string) (string, error) {
	out, err := s.runner.Run(ctx, s.cfg.ImageVersion, map[string]any{
		"prompt":          prompt,
		"negative_prompt": negativePrompt,
		"width":           stillWidth,
		"height":          stillHeight,
	})
	if err != nil {
		return "", err
	}
	return replicate.FirstURL(out)
}

func (s *VideoService) animate(ctx context.Context, imageURL string, frames int) (string, error) {
	out, err := s.runner.Run(ctx, s.cfg.VideoVersion, map[string]any{
		"cond_aug":          0.02,
		"decoding_t":        7,
		"input_image":       imageURL,
		"video_length":      frames,
		"sizing_strategy":   "maintain_aspect_ratio",
		"motion_bucket_id":  127,
		"frames_per_second": 6,
	})
	if err != nil {
		return "", err
	}
	return replicate.FirstURL(out)
}
