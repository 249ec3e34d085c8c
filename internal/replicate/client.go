// Package replicate runs predictions through the Replicate Go SDK and
// maps its results onto the errors and output shapes reelcast uses.
package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"
)

const defaultPollInterval = 2 * time.Second

// Prediction status values reported by the API.
const (
	StatusSucceeded = string(replicatego.Succeeded)
	StatusFailed    = string(replicatego.Failed)
	StatusCanceled  = string(replicatego.Canceled)
)

// Config captures the runtime settings required to talk to Replicate.
type Config struct {
	APIToken     string
	BaseURL      string
	PollInterval time.Duration
}

// Client creates predictions and waits for them to finish.
type Client struct {
	sdk          *replicatego.Client
	pollInterval time.Duration
}

// Option customizes the client.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the SDK's HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// NewClient constructs a client using the supplied configuration. Without
// a token the client is created unconfigured and every Run fails.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client := &Client{pollInterval: cfg.PollInterval}
	if client.pollInterval <= 0 {
		client.pollInterval = defaultPollInterval
	}

	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return client, nil
	}
	sdkOpts := []replicatego.ClientOption{replicatego.WithToken(token)}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		sdkOpts = append(sdkOpts, replicatego.WithBaseURL(base))
	}
	if o.httpClient != nil {
		sdkOpts = append(sdkOpts, replicatego.WithHTTPClient(o.httpClient))
	}
	sdk, err := replicatego.NewClient(sdkOpts...)
	if err != nil {
		return nil, fmt.Errorf("replicate client: %w", err)
	}
	client.sdk = sdk
	return client, nil
}

// Configured reports whether an API token is available.
func (c *Client) Configured() bool {
	return c.sdk != nil
}

// Run creates a prediction for version and waits until it reaches a final
// state or ctx ends. The output is returned as raw JSON.
func (c *Client) Run(ctx context.Context, version string, input map[string]any) (json.RawMessage, error) {
	if c.sdk == nil {
		return nil, errors.New("replicate run: api token required")
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, errors.New("replicate run: version required")
	}
	// Accept "owner/model:version" as well as a bare version id.
	if i := strings.LastIndex(version, ":"); i >= 0 {
		version = version[i+1:]
	}

	pred, err := c.sdk.CreatePrediction(ctx, version, replicatego.PredictionInput(input), nil, false)
	if err != nil {
		return nil, c.wrap(ctx, "create prediction", err)
	}
	if err := c.sdk.Wait(ctx, pred, replicatego.WithPollingInterval(c.pollInterval)); err != nil {
		return nil, c.wrap(ctx, "prediction "+pred.ID, err)
	}

	if string(pred.Status) != StatusSucceeded {
		return nil, &PredictionError{ID: pred.ID, Status: string(pred.Status), Message: errorMessage(pred.Error)}
	}
	out, err := json.Marshal(pred.Output)
	if err != nil {
		return nil, fmt.Errorf("replicate run: encode output: %w", err)
	}
	return out, nil
}

// wrap converts SDK failures: API problems become *APIError and context
// expiry stays detectable with errors.Is.
func (c *Client) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("replicate run: %s: %w", op, ctxErr)
	}
	var sdkErr *replicatego.APIError
	if errors.As(err, &sdkErr) {
		return &APIError{StatusCode: sdkErr.Status, Title: sdkErr.Title, Detail: sdkErr.Detail}
	}
	return fmt.Errorf("replicate run: %s: %w", op, err)
}

func errorMessage(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprint(e)
		}
		return string(raw)
	}
}

// FirstURL extracts a URL from prediction output, which is either a single
// string or a list of strings.
func FirstURL(output json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(output, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(output, &list); err == nil {
		for _, item := range list {
			if strings.TrimSpace(item) != "" {
				return item, nil
			}
		}
	}
	return "", fmt.Errorf("replicate output: no url in %s", truncate(string(output), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
