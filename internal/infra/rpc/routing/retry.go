package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/vietddude/rankcheck/internal/core/domain"
	"github.com/vietddude/rankcheck/internal/infra/rpc/provider"
)

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	// ActionTerminal records the entry under Failed_Lookup right away.
	ActionTerminal ErrorAction = iota
	// ActionRequeue defers the entry to the next recheck round.
	ActionRequeue
	// ActionAbort stops the run (context cancelled).
	ActionAbort
)

func (a ErrorAction) String() string {
	switch a {
	case ActionTerminal:
		return "terminal"
	case ActionRequeue:
		return "requeue"
	case ActionAbort:
		return "abort"
	}
	return "unknown"
}

// ClassifyError determines the action for a given error. Only rate limits
// are ever retried.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionTerminal // Should not happen
	}
	if errors.Is(err, context.Canceled) {
		return ActionAbort
	}
	if ShouldRequeue(Kind(err)) {
		return ActionRequeue
	}
	return ActionTerminal
}

// Kind maps any error to a failure kind. Typed provider errors carry their
// own; anything else falls back to message inspection.
func Kind(err error) domain.FailureKind {
	if err == nil {
		return domain.FailureNone
	}

	var ce *provider.CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	sLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(sLower, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit"):
		return domain.FailureRateLimited
	case strings.Contains(sLower, "timeout") || strings.Contains(sLower, "connection refused") ||
		strings.Contains(sLower, "connection reset"):
		return domain.FailureTransient
	case strings.Contains(sLower, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "unauthorized") || strings.Contains(sLower, "invalid api key"):
		return domain.FailureUnauthorized
	}
	return domain.FailureUnexpected
}

// ShouldRequeue reports whether a failure kind is retried.
func ShouldRequeue(kind domain.FailureKind) bool {
	return kind == domain.FailureRateLimited
}
