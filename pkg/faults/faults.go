// Package faults classifies errors into the stable kinds surfaced to callers.
// A user-visible failure always carries a Kind, never a raw transport error.
package faults

import (
	"errors"
	"fmt"
)

// Kind is a stable error classification.
type Kind string

const (
	// Network marks a transient transport failure. Retried with backoff.
	Network Kind = "network"
	// Conflict marks a stale local revision. The operation is requeued.
	Conflict Kind = "conflict"
	// Validation marks malformed input. Rejected immediately, never retried.
	Validation Kind = "validation"
	// RiskService marks an unavailable risk oracle. Degraded per policy.
	RiskService Kind = "risk_service"
	// Signing marks a wallet signing failure. The payment is marked failed.
	Signing Kind = "signing"
	// Broadcast marks a failed or unconfirmed broadcast. Never auto-retried.
	Broadcast Kind = "broadcast"
	// Persistence marks a local write failure. Fatal for that operation.
	Persistence Kind = "persistence"
)

// Fault wraps an underlying error with a Kind and the operation that failed.
type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// New wraps err with the given kind and operation name.
func New(kind Kind, op string, err error) error {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Newf creates a fault from a formatted message with no underlying cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Fault{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost Fault in err's chain, or "" when
// err carries no classification.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Is reports whether err's chain contains a Fault of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
