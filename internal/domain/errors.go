package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPersona    = errors.New("unknown persona")
	ErrUnknownModel      = errors.New("unknown model")
	ErrOutOfRange        = errors.New("value out of range")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrMissingCredential = errors.New("missing API credential")
	ErrExportNotFound    = errors.New("export not found")
	ErrEmptyResponse     = errors.New("empty response")
)

// GatewayError is any failure talking to, or interpreting the answer of,
// the inference endpoint.
type GatewayError struct {
	Provider string
	Op       string
	// Status is the HTTP status code reported by the endpoint, 0 if unknown.
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
