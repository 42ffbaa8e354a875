// Package errs defines the error kinds shared across the seismic core:
// IoError, CorruptionError, VersionError, BudgetError, InvariantError and
// Cancelled. Callers should use errors.Is/errors.As (stdlib) to test for a
// kind; construction at I/O and decode boundaries uses github.com/pkg/errors
// so the originating stack is preserved.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error categories from spec §7.
type Kind int

const (
	// KindIO marks an underlying read/write failure.
	KindIO Kind = iota
	// KindCorruption marks a checksum/magic mismatch or a decoded-record
	// invariant violation. Non-recoverable: the segment is unusable.
	KindCorruption
	// KindVersion marks an unknown codec version. Unusable.
	KindVersion
	// KindBudget marks a cache-manager reserve refusal.
	KindBudget
	// KindInvariant marks an internal bug, e.g. docId overflow during merge.
	KindInvariant
	// KindCancelled marks cooperative cancellation; partial results are valid.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindCorruption:
		return "CorruptionError"
	case KindVersion:
		return "VersionError"
	case KindBudget:
		return "BudgetError"
	case KindInvariant:
		return "InvariantError"
	case KindCancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on it
// with errors.As.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, errs.IO) match any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.cause == nil && other.Kind == e.Kind
}

// Sentinel values for use with errors.Is, e.g. errors.Is(err, errs.IO).
var (
	IO         = &Error{Kind: KindIO}
	Corruption = &Error{Kind: KindCorruption}
	Version    = &Error{Kind: KindVersion}
	Budget     = &Error{Kind: KindBudget}
	Invariant  = &Error{Kind: KindInvariant}
	Cancelled  = &Error{Kind: KindCancelled}
)

// IOf wraps cause as an IoError, annotated with a formatted message and a
// captured stack trace.
func IOf(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindIO, cause: errors.Wrapf(cause, format, args...)}
}

// Corruptf builds a CorruptionError from a formatted message.
func Corruptf(format string, args ...interface{}) error {
	return &Error{Kind: KindCorruption, cause: errors.Errorf(format, args...)}
}

// Versionf wraps a codec version mismatch as a VersionError.
func Versionf(format string, args ...interface{}) error {
	return &Error{Kind: KindVersion, cause: errors.Errorf(format, args...)}
}

// Budgetf wraps a cache budget refusal as a BudgetError.
func Budgetf(format string, args ...interface{}) error {
	return &Error{Kind: KindBudget, cause: errors.Errorf(format, args...)}
}

// Invariantf wraps an internal bug as an InvariantError.
func Invariantf(format string, args ...interface{}) error {
	return &Error{Kind: KindInvariant, cause: errors.Errorf(format, args...)}
}

// IsCancelled reports whether err signals cooperative cancellation.
func IsCancelled(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindCancelled
}

// CancelledErr is the sentinel returned by operations that stop early
// because a cancellation flag was observed.
var CancelledErr error = &Error{Kind: KindCancelled}
