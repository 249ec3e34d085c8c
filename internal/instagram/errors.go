package instagram

import (
	"fmt"
	"strings"
)

// APIError is the failure body returned by the private API, e.g.
// {"message":"challenge_required","status":"fail","error_type":"checkpoint_challenge_required"}.
type APIError struct {
	StatusCode        int    `json:"-"`
	Message           string `json:"message"`
	Status            string `json:"status"`
	ErrorType         string `json:"error_type"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	Challenge         *struct {
		URL string `json:"url"`
	} `json:"challenge,omitempty"`
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.ErrorType
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("instagram: http %d: %s", e.StatusCode, msg)
}

// ChallengeRequired reports a checkpoint or two-factor demand.
func (e *APIError) ChallengeRequired() bool {
	return e.TwoFactorRequired || e.Challenge != nil ||
		e.has("challenge_required") || e.has("two_factor_required")
}

// BadPassword reports a rejected password.
func (e *APIError) BadPassword() bool {
	return e.ErrorType == "bad_password" || strings.Contains(e.Message, "The password you entered is incorrect")
}

// ConsentRequired reports that the account must accept terms in the app first.
func (e *APIError) ConsentRequired() bool {
	return e.has("consent_required")
}

func (e *APIError) has(code string) bool {
	return strings.Contains(e.Message, code) || strings.Contains(e.ErrorType, code)
}
