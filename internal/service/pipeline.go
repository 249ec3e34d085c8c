package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reelcast/internal/models"
	"strings"
)

// Pipeline turns a scheduled job into a published post.
type Pipeline interface {
	Run(ctx context.Context, job models.Job) (postID string, err error)
}

// VideoGenerator is the generate half of the pipeline.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt, style, duration string) (string, error)
}

// VideoPublisher is the publish half of the pipeline.
type VideoPublisher interface {
	Publish(ctx context.Context, videoURL, caption string) (string, error)
}

// DirectPipeline calls the generation and publish services in process.
type DirectPipeline struct {
	Videos VideoGenerator
	Posts  VideoPublisher
}

// Run generates with the default style and duration, then publishes.
func (p *DirectPipeline) Run(ctx context.Context, job models.Job) (string, error) {
	videoURL, err := p.Videos.Generate(ctx, job.Prompt, "", "")
	if err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}
	postID, err := p.Posts.Publish(ctx, videoURL, job.Caption)
	if err != nil {
		return "", fmt.Errorf("post video: %w", err)
	}
	return postID, nil
}

// HTTPPipeline re-enters the server's own /videos and /posts endpoints at
// BaseURL, so generation and publishing can run on another instance.
type HTTPPipeline struct {
	BaseURL string
	Client  *http.Client
}

// Run posts to /videos and then /posts; any non-2xx answer fails the job.
func (p *HTTPPipeline) Run(ctx context.Context, job models.Job) (string, error) {
	var video models.GenerateVideoResponse
	if err := p.post(ctx, "/videos", models.GenerateVideoRequest{Prompt: job.Prompt}, &video); err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}
	if video.VideoURL == "" {
		return "", fmt.Errorf("generate video: empty video url")
	}
	var post models.PublishResponse
	if err := p.post(ctx, "/posts", models.PublishRequest{VideoURL: video.VideoURL, Caption: job.Caption}, &post); err != nil {
		return "", fmt.Errorf("post video: %w", err)
	}
	return post.PostID, nil
}

func (p *HTTPPipeline) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: http %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s: http %d", path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
