// Package apiclient talks to a running reelcast server over its JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reelcast/internal/models"
	"strings"
	"time"
)

// Error is a non-2xx answer from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned http %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (http %d)", e.Message, e.StatusCode)
}

// Client is a thin wrapper over the HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Status(ctx context.Context) (models.ConnectionStatus, error) {
	var out models.ConnectionStatus
	err := c.do(ctx, http.MethodGet, "/connection/status", nil, &out)
	return out, err
}

func (c *Client) Connect(ctx context.Context, username, password string) (models.ConnectResponse, error) {
	var out models.ConnectResponse
	err := c.do(ctx, http.MethodPost, "/connection", models.ConnectRequest{Username: username, Password: password}, &out)
	return out, err
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/connection/disconnect", nil, nil)
}

func (c *Client) Generate(ctx context.Context, req models.GenerateVideoRequest) (string, error) {
	var out models.GenerateVideoResponse
	err := c.do(ctx, http.MethodPost, "/videos", req, &out)
	return out.VideoURL, err
}

func (c *Client) Publish(ctx context.Context, videoURL, caption string) (models.PublishResponse, error) {
	var out models.PublishResponse
	err := c.do(ctx, http.MethodPost, "/posts", models.PublishRequest{VideoURL: videoURL, Caption: caption}, &out)
	return out, err
}

func (c *Client) Schedule(ctx context.Context, prompt, caption string, at time.Time) (*models.Job, error) {
	var out models.ScheduleResponse
	req := models.ScheduleRequest{Prompt: prompt, Caption: caption, ScheduledTime: at.Format(time.RFC3339)}
	if err := c.do(ctx, http.MethodPost, "/schedule", req, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

func (c *Client) Jobs(ctx context.Context) ([]models.Job, error) {
	var out models.JobListResponse
	err := c.do(ctx, http.MethodGet, "/schedule", nil, &out)
	return out.Posts, err
}

func (c *Client) Job(ctx context.Context, id string) (*models.Job, error) {
	var out models.JobResponse
	if err := c.do(ctx, http.MethodGet, "/schedule/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reach reelcast at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return &Error{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
