package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reelcast/internal/models"
	"reelcast/internal/service"

	servertiming "github.com/mitchellh/go-server-timing"
)

const maxBodyBytes = 1 << 20

// statusFor maps a service failure to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAuthChallenge), errors.Is(err, service.ErrVerificationRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("error encoding response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, models.ErrorResponse{Error: message})
}

// writeServiceError logs err and answers with its user message.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}
	writeError(w, logger, status, service.UserMessage(err))
}

// decodeJSON reads a JSON body; a failure has already been answered with 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// timing is a Server-Timing metric that is a no-op outside the middleware.
type timing struct {
	metric *servertiming.Metric
}

func startTiming(ctx context.Context, name string) timing {
	header := servertiming.FromContext(ctx)
	if header == nil {
		return timing{}
	}
	return timing{metric: header.NewMetric(name).Start()}
}

func (t timing) Stop() {
	if t.metric != nil {
		t.metric.Stop()
	}
}
