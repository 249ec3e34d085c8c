package replicate

import (
	"fmt"
	"net/http"
)

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Title != "" && e.Detail != "" {
		return fmt.Sprintf("replicate: http %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("replicate: http %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("replicate: http %d", e.StatusCode)
}

// Unauthorized reports whether the token was rejected.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// PredictionError is returned when a prediction ends failed or canceled.
type PredictionError struct {
	ID      string
	Status  string
	Message string
}

func (e *PredictionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("replicate: prediction %s %s", e.ID, e.Status)
	}
	return fmt.Sprintf("replicate: prediction %s %s: %s", e.ID, e.Status, e.Message)
}
