// Package fault defines the error taxonomy shared by all gamereview components.
package fault

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the kind of failure.
var (
	// ErrTransport indicates a network or HTTP failure talking to an upstream service.
	ErrTransport = errors.New("gamereview: transport failure")

	// ErrAccountProvisioning indicates the analysis credential could not be minted.
	ErrAccountProvisioning = errors.New("gamereview: account provisioning failed")

	// ErrLookup indicates the requested player or game does not exist.
	ErrLookup = errors.New("gamereview: game not found")

	// ErrProtocol indicates a malformed frame on the analysis connection.
	ErrProtocol = errors.New("gamereview: protocol violation")

	// ErrAnalysisTimeout indicates no completion frame arrived in time.
	ErrAnalysisTimeout = errors.New("gamereview: analysis timed out")

	// ErrMalformedResponse indicates an upstream payload is missing expected data.
	ErrMalformedResponse = errors.New("gamereview: malformed response")
)

// Error is a rich error carrying the failure kind and the operation that failed.
type Error struct {
	Kind   error
	Op     string
	Status int   // HTTP status, if any
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Status returns an Error of the given kind for an unexpected HTTP status.
func Status(kind error, op string, status int) *Error {
	return &Error{Kind: kind, Op: op, Status: status}
}

// Missing reports an absent field in an upstream payload.
func Missing(op, path string) *Error {
	return &Error{Kind: ErrMalformedResponse, Op: op, Err: fmt.Errorf("missing field %q", path)}
}
