package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrAuthChallenge        = errors.New("auth challenge required")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("verification required")
	ErrProvider             = errors.New("provider error")
	ErrJobNotFound          = errors.New("job not found")
)

// Error tags a failure with one of the sentinel markers above while keeping
// a human readable message for the caller.
type Error struct {
	Marker  error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 2)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return e.Marker.Error()
	}
	return strings.Join(parts, ": ")
}

// Is matches the marker, so errors.Is(err, ErrValidation) works on wrapped errors.
func (e *Error) Is(target error) bool {
	return e.Marker == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an Error carrying marker. A nil marker defaults to ErrProvider.
func Wrap(marker error, op, message string, err error) error {
	if marker == nil {
		marker = ErrProvider
	}
	return &Error{Marker: marker, Op: op, Message: message, Err: err}
}

// UserMessage returns the message meant for API clients.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		if msg := strings.TrimSpace(svcErr.Message); msg != "" {
			return msg
		}
		if svcErr.Err != nil {
			return svcErr.Err.Error()
		}
	}
	return err.Error()
}

func validationError(op, message string) error {
	return Wrap(ErrValidation, op, message, nil)
}

func providerError(op string, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Wrap(ErrProvider, op, msg, err)
}
