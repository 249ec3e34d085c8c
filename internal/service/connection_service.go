package service

import (
	"context"
	"errors"
	"log/slog"
	"reelcast/internal/metrics"
	"reelcast/internal/models"
	"reelcast/internal/session"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgChallenge          = "Two-factor authentication detected. Please disable 2FA or verify via Instagram app first."
	msgInvalidCredentials = "Invalid username or password"
	msgConnectFailed      = "Failed to connect to Instagram"
	msgMissingCredentials = "Instagram credentials not configured"
)

// Authenticator logs in to the publish target.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (session.Handle, error)
}

// Credentials is a username/password pair from the ambient configuration.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// ConnectionService establishes and tears down the publishing session
type ConnectionService struct {
	auth    Authenticator
	store   *session.Store
	ambient Credentials
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer

	// loginMu serializes implicit logins so concurrent publishes share one.
	loginMu sync.Mutex
}

// NewConnectionService creates a new connection service
func NewConnectionService(auth Authenticator, store *session.Store, ambient Credentials, metrics *metrics.Metrics, logger *slog.Logger, opts ...Option) *ConnectionService {
	return &ConnectionService{
		auth:    auth,
		store:   store,
		ambient: ambient,
		metrics: metrics,
		logger:  logger,
		tracer:  newTracer(opts),
	}
}

// Connect logs in with the supplied credentials and replaces the session.
func (s *ConnectionService) Connect(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", validationError("connect", "Username and password are required")
	}

	handle, err := s.login(ctx, username, password)
	if err != nil {
		s.logger.Warn("instagram connection failed", slog.String("username", username), slog.String("error", err.Error()))
		return "", err
	}

	s.store.Replace(handle, username)
	s.metrics.IncrementConnections()
	s.logger.Info("instagram connected", slog.String("username", username))
	return username, nil
}

// Disconnect clears the session; it always succeeds.
func (s *ConnectionService) Disconnect() {
	s.store.Clear()
	s.logger.Info("instagram disconnected")
}

// Status reports whether publishing is possible and as whom.
func (s *ConnectionService) Status() models.ConnectionStatus {
	handle, username := s.store.Snapshot()
	status := models.ConnectionStatus{
		Connected: handle != nil || s.ambient.Complete(),
	}
	switch {
	case handle != nil && username != "":
		status.Username = &username
	case s.ambient.Username != "":
		fallback := s.ambient.Username
		status.Username = &fallback
	}
	return status
}

// EnsureSession returns the live handle, logging in with the ambient
// credentials first when there is none.
func (s *ConnectionService) EnsureSession(ctx context.Context) (session.Handle, error) {
	if handle := s.store.Get(); handle != nil {
		return handle, nil
	}
	if !s.ambient.Complete() {
		return nil, Wrap(ErrConfiguration, "publish", msgMissingCredentials, nil)
	}

	s.loginMu.Lock()
	defer s.loginMu.Unlock()
	if handle := s.store.Get(); handle != nil {
		return handle, nil
	}

	handle, err := s.login(ctx, s.ambient.Username, s.ambient.Password)
	if err != nil {
		return nil, err
	}
	s.store.Replace(handle, s.ambient.Username)
	s.metrics.IncrementConnections()
	s.logger.Info("instagram connected with configured credentials", slog.String("username", s.ambient.Username))
	return handle, nil
}

// CanPublish reports whether a session exists or could be created without
// network I/O failing on missing configuration.
func (s *ConnectionService) CanPublish() bool {
	return s.store.Get() != nil || s.ambient.Complete()
}

func (s *ConnectionService) login(ctx context.Context, username, password string) (handle session.Handle, err error) {
	ctx, span := startSpan(ctx, s.tracer, "instagram.login", attribute.String("instagram.username", username))
	defer func() { endSpan(span, err) }()

	handle, err = s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return nil, classifyLoginError(err)
	}
	return handle, nil
}

type challengeSignal interface{ ChallengeRequired() bool }

type badPasswordSignal interface{ BadPassword() bool }

type consentSignal interface{ ConsentRequired() bool }

func classifyLoginError(err error) error {
	var challenge challengeSignal
	if errors.As(err, &challenge) && challenge.ChallengeRequired() {
		return Wrap(ErrAuthChallenge, "connect", msgChallenge, err)
	}
	var badPassword badPasswordSignal
	if errors.As(err, &badPassword) && badPassword.BadPassword() {
		return Wrap(ErrInvalidCredentials, "connect", msgInvalidCredentials, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "challenge_required"), strings.Contains(msg, "two_factor_required"):
		return Wrap(ErrAuthChallenge, "connect", msgChallenge, err)
	case strings.Contains(msg, "The password you entered is incorrect"), strings.Contains(msg, "bad_password"):
		return Wrap(ErrInvalidCredentials, "connect", msgInvalidCredentials, err)
	}
	if strings.TrimSpace(msg) == "" {
		msg = msgConnectFailed
	}
	return Wrap(ErrProvider, "connect", msg, err)
}

func classifyPublishError(err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrAuthChallenge) || errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrVerificationRequired) || errors.Is(err, ErrProvider) {
		return err
	}
	var challenge challengeSignal
	if errors.As(err, &challenge) && challenge.ChallengeRequired() {
		return Wrap(ErrVerificationRequired, "publish", msgVerification, err)
	}
	var consent consentSignal
	if errors.As(err, &consent) && consent.ConsentRequired() {
		return Wrap(ErrVerificationRequired, "publish", msgVerification, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "challenge_required") || strings.Contains(msg, "consent_required") {
		return Wrap(ErrVerificationRequired, "publish", msgVerification, err)
	}
	return providerError("publish", err)
}
