// Package instagram implements the parts of the Instagram private API that
// reelcast needs: password login and reel video publishing.
package instagram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reelcast/internal/session"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL     = "https://i.instagram.com"
	defaultHTTPTimeout = 2 * time.Minute
	defaultUserAgent   = "Instagram 222.0.0.13.114 Android (29/10; 420dpi; 1080x2129; samsung; SM-G973F; beyond1; exynos9820; en_US; 350696709)"
	appID              = "567067343352427"
	signatureKey       = "SIGNATURE"
	maxErrorBody       = 8192
)

// Config captures client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client creates authenticated sessions.
type Client struct {
	cfg Config
}

// NewClient constructs a client; zero fields take defaults.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	return &Client{cfg: cfg}
}

// Device identifies the emulated phone. It is derived from the username so
// repeated logins look like the same device.
type Device struct {
	DeviceID string
	UUID     string
	PhoneID  string
}

// NewDevice derives a stable device identity for username.
func NewDevice(username string) Device {
	seed := uuid.NewSHA1(uuid.NameSpaceOID, []byte("reelcast:"+username))
	return Device{
		DeviceID: "android-" + strings.ReplaceAll(seed.String(), "-", "")[:16],
		UUID:     uuid.NewSHA1(seed, []byte("uuid")).String(),
		PhoneID:  uuid.NewSHA1(seed, []byte("phone")).String(),
	}
}

type loginResponse struct {
	Status       string `json:"status"`
	LoggedInUser struct {
		PK       json.Number `json:"pk"`
		Username string      `json:"username"`
	} `json:"logged_in_user"`
}

// Login authenticates with username and password and returns a session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("instagram login: username and password required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("instagram login: cookie jar: %w", err)
	}
	s := &Session{
		cfg:        c.cfg,
		device:     NewDevice(username),
		username:   username,
		httpClient: &http.Client{Timeout: c.cfg.Timeout, Jar: jar},
	}

	form := map[string]string{
		"username":            username,
		"enc_password":        fmt.Sprintf("#PWD_INSTAGRAM:0:%d:%s", time.Now().Unix(), password),
		"device_id":           s.device.DeviceID,
		"guid":                s.device.UUID,
		"phone_id":            s.device.PhoneID,
		"login_attempt_count": "0",
	}
	var resp loginResponse
	header, err := s.postSigned(ctx, "/api/v1/accounts/login/", form, &resp)
	if err != nil {
		return nil, err
	}
	if auth := header.Get("ig-set-authorization"); auth != "" {
		s.authorization = auth
	}
	s.userID = resp.LoggedInUser.PK.String()
	if resp.LoggedInUser.Username != "" {
		s.username = resp.LoggedInUser.Username
	}
	return s, nil
}

// Authenticate is Login returning the session as a publishing handle.
func (c *Client) Authenticate(ctx context.Context, username, password string) (session.Handle, error) {
	s, err := c.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Session is a logged-in account.
type Session struct {
	cfg           Config
	device        Device
	username      string
	userID        string
	authorization string
	httpClient    *http.Client
}

// Username returns the account name the session belongs to.
func (s *Session) Username() string {
	return s.username
}

// UserID returns the numeric account id reported at login.
func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("X-IG-App-ID", appID)
	req.Header.Set("X-IG-Device-ID", s.device.UUID)
	req.Header.Set("X-IG-Android-ID", s.device.DeviceID)
	if s.authorization != "" {
		req.Header.Set("Authorization", s.authorization)
	}
	return req, nil
}

// postSigned sends a signed_body form post and decodes the JSON reply into out.
func (s *Session) postSigned(ctx context.Context, path string, fields map[string]string, out any) (http.Header, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("instagram %s: encode body: %w", path, err)
	}
	form := url.Values{}
	form.Set("signed_body", signBody(payload))
	form.Set("ig_sig_key_version", "4")

	req, err := s.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("instagram %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return s.do(req, out)
}

func (s *Session) do(req *http.Request, out any) (http.Header, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instagram %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("instagram %s: read response: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &status); err == nil && status.Status == "fail" {
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("instagram %s: decode response: %w", req.URL.Path, err)
		}
	}
	return resp.Header, nil
}

func parseAPIError(status int, raw []byte) error {
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	apiErr.StatusCode = status
	return apiErr
}

func signBody(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)) + "." + string(payload)
}

func newUploadID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
