package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

var (
	// ErrNotFound is returned when the upstream has no such resource.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned on an upstream 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient covers timeouts and connection failures.
	ErrTransient = errors.New("transient network error")

	// ErrUnauthorized is returned when credentials are rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnexpected is the catch-all for anything else.
	ErrUnexpected = errors.New("unexpected error")
)

// CallError describes a failed upstream call.
type CallError struct {
	Service string
	Kind    domain.FailureKind
	Status  int
	Reason  string
	Err     error
}

func (e *CallError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	switch e.Kind {
	case domain.FailureRateLimited:
		return fmt.Sprintf("Rate limited by %s", e.Service)
	case domain.FailureNotFound:
		return fmt.Sprintf("%s: not found", e.Service)
	case domain.FailureUnauthorized:
		return fmt.Sprintf("%s rejected credentials (%d)", e.Service, e.Status)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s error: %d", e.Service, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Kind)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *CallError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == domain.FailureNotFound
	case ErrRateLimited:
		return e.Kind == domain.FailureRateLimited
	case ErrTransient:
		return e.Kind == domain.FailureTransient
	case ErrUnauthorized:
		return e.Kind == domain.FailureUnauthorized
	case ErrUnexpected:
		return e.Kind == domain.FailureUnexpected
	}
	return false
}

// transportError wraps an error returned by http.Client.Do.
func transportError(service string, err error) *CallError {
	if isTimeout(err) {
		return &CallError{
			Service: service,
			Kind:    domain.FailureTransient,
			Reason:  service + " timeout",
			Err:     err,
		}
	}
	if isConnection(err) {
		return &CallError{
			Service: service,
			Kind:    domain.FailureTransient,
			Reason:  "Connection error to " + service,
			Err:     err,
		}
	}
	return &CallError{Service: service, Kind: domain.FailureUnexpected, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnection(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET)
}
