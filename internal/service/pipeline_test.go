package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reelcast/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	url    string
	err    error
	prompt string
	style  string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, style, duration string) (string, error) {
	g.prompt, g.style = prompt, style
	return g.url, g.err
}

type stubPublisher struct {
	postID  string
	err     error
	calls   int
	url     string
	caption string
}

func (p *stubPublisher) Publish(ctx context.Context, videoURL, caption string) (string, error) {
	p.calls++
	p.url, p.caption = videoURL, caption
	return p.postID, p.err
}

func TestDirectPipeline_Run(t *testing.T) {
	gen := &stubGenerator{url: "https://x/v.mp4"}
	pub := &stubPublisher{postID: "media_1"}
	p := &DirectPipeline{Videos: gen, Posts: pub}

	postID, err := p.Run(context.Background(), models.Job{Prompt: "a cat", Caption: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "media_1", postID)
	assert.Equal(t, "a cat", gen.prompt)
	assert.Empty(t, gen.style)
	assert.Equal(t, "https://x/v.mp4", pub.url)
	assert.Equal(t, "hi", pub.caption)
}

func TestDirectPipeline_SkipsPublishOnGenerateFailure(t *testing.T) {
	gen := &stubGenerator{err: Wrap(ErrProvider, "generate", "boom", nil)}
	pub := &stubPublisher{}
	p := &DirectPipeline{Videos: gen, Posts: pub}

	_, err := p.Run(context.Background(), models.Job{Prompt: "a cat"})
	require.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, pub.calls)
}

func TestHTTPPipeline_Run(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var publishReq models.PublishRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/videos":
			var req models.GenerateVideoRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a cat", req.Prompt)
			_ = json.NewEncoder(w).Encode(models.GenerateVideoResponse{VideoURL: "https://x/v.mp4"})
		case "/posts":
			mu.Lock()
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&publishReq))
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(models.PublishResponse{Success: true, PostID: "media_7"})
		}
	}))
	defer srv.Close()

	p := &HTTPPipeline{BaseURL: srv.URL + "/", Client: srv.Client()}
	postID, err := p.Run(context.Background(), models.Job{Prompt: "a cat", Caption: "cap"})
	require.NoError(t, err)
	assert.Equal(t, "media_7", postID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /videos", "POST /posts"}, paths)
	assert.Equal(t, "https://x/v.mp4", publishReq.VideoURL)
	assert.Equal(t, "cap", publishReq.Caption)
}

func TestHTTPPipeline_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/posts" {
			t.Errorf("publish must not be called after a failed generation")
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "REPLICATE_API_TOKEN not configured"})
	}))
	defer srv.Close()

	p := &HTTPPipeline{BaseURL: srv.URL, Client: srv.Client()}
	_, err := p.Run(context.Background(), models.Job{Prompt: "a cat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 500: REPLICATE_API_TOKEN not configured")
}

func TestHTTPPipeline_Unreachable(t *testing.T) {
	p := &HTTPPipeline{BaseURL: "http://127.0.0.1:1"}
	_, err := p.Run(context.Background(), models.Job{Prompt: "a cat"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
