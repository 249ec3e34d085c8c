package handler

import (
	"context"
	"log/slog"
	"net/http"
	"reelcast/internal/models"
)

// Generator renders a video from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, style, duration string) (string, error)
}

// Publisher posts a video.
type Publisher interface {
	Publish(ctx context.Context, videoURL, caption string) (string, error)
}

// VideoHandler handles HTTP requests for generation and posting
type VideoHandler struct {
	videos Generator
	posts  Publisher
	logger *slog.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videos Generator, posts Publisher, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, posts: posts, logger: logger}
}

// Generate handles POST /videos
func (h *VideoHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateVideoRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	t := startTiming(r.Context(), "generate")
	videoURL, err := h.videos.Generate(r.Context(), req.Prompt, req.Style, req.Duration)
	t.Stop()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.GenerateVideoResponse{VideoURL: videoURL})
}

// Publish handles POST /posts
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req models.PublishRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	t := startTiming(r.Context(), "publish")
	postID, err := h.posts.Publish(r.Context(), req.VideoURL, req.Caption)
	t.Stop()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.PublishResponse{
		Success: true,
		Message: "Video posted successfully to Instagram",
		PostID:  postID,
	})
}
