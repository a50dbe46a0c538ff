package drive

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Kind tells callers what to do about a failed Drive call.
type Kind int

const (
	// NotConnected means there is no usable token; the user has to sign in again.
	NotConnected Kind = iota + 1
	// Transient failures (network, throttling, server errors) may succeed on retry.
	Transient
	// Rejected means Drive refused the request or answered with something unusable.
	Rejected
)

func (k Kind) String() string {
	switch k {
	case NotConnected:
		return "not connected"
	case Transient:
		return "transient"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingClientID is returned by Initialize when no OAuth client is configured.
	ErrMissingClientID = errors.New("drive: OAuth client credentials are not configured")
	// ErrNotConnected is the cause of NotConnected errors raised before any request is sent.
	ErrNotConnected = errors.New("drive: not signed in")
	// ErrNotInitialized is returned when the adapter is used before Initialize.
	ErrNotInitialized = errors.New("drive: adapter not initialized")
)

// Error is the only error type returned by Adapter operations other than Initialize.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("drive %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a drive error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsTransient reports whether retrying the failed call may succeed.
func IsTransient(err error) bool {
	k, ok := KindOf(err)
	return ok && k == Transient
}

// IsNotConnected reports whether the user has to sign in (again).
func IsNotConnected(err error) bool {
	k, ok := KindOf(err)
	return ok && k == NotConnected
}

// classify wraps err in an *Error whose kind follows from the failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: kindFor(err), Op: op, Err: err}
}

func kindFor(err error) Kind {
	if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrNotInitialized) {
		return NotConnected
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return kindForStatus(rerr.Response.StatusCode, true)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return kindForStatus(gerr.Code, false)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return Transient
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return Transient
	}
	return Rejected
}

// kindForStatus maps an HTTP status. Token endpoint failures with 400 mean the
// grant is gone, which is a sign-in problem rather than a bad request.
func kindForStatus(code int, tokenEndpoint bool) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return NotConnected
	case tokenEndpoint && code == http.StatusBadRequest:
		return NotConnected
	case code == http.StatusTooManyRequests, code >= 500:
		return Transient
	default:
		return Rejected
	}
}
