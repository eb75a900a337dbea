// Package capdagerr defines the unified error type surfaced across cap
// definitions, the cap graph, the path finder, and the plan builder.
package capdagerr

import "fmt"

// Kind classifies a capdagerr.Error so callers can branch on failure class
// without string matching.
type Kind int

const (
	// HardFail is a malformed external representation: a missing required
	// field, an unparseable URN, a reference to a spec that doesn't exist.
	HardFail Kind = iota
	// SchemaError is a well-formed but semantically invalid definition,
	// e.g. a required argument carrying a default value.
	SchemaError
	// InvariantViolation is a structural bug-check failure: a duplicate
	// graph edge, a cycle in a plan, a dangling edge endpoint.
	InvariantViolation
	// Unreachable means a path or plan could not be found between two
	// specs in the graph.
	Unreachable
)

func (k Kind) String() string {
	switch k {
	case HardFail:
		return "hard_fail"
	case SchemaError:
		return "schema_error"
	case InvariantViolation:
		return "invariant_violation"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Error is the tagged error type returned by capdag-go's components.
type Error struct {
	Kind    Kind
	Op      string // component/operation that raised it, e.g. "cap.Validate"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports Kind equality so errors.Is(err, capdagerr.SchemaError) style
// checks work when compared against a bare *Error carrying only a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// HardFailf builds a HardFail error.
func HardFailf(op, format string, args ...any) *Error {
	return newf(HardFail, op, format, args...)
}

// SchemaErrorf builds a SchemaError error.
func SchemaErrorf(op, format string, args ...any) *Error {
	return newf(SchemaError, op, format, args...)
}

// InvariantViolationf builds an InvariantViolation error.
func InvariantViolationf(op, format string, args ...any) *Error {
	return newf(InvariantViolation, op, format, args...)
}

// Unreachablef builds an Unreachable error.
func Unreachablef(op, format string, args ...any) *Error {
	return newf(Unreachable, op, format, args...)
}

// Wrap attaches a causing error to a newly built capdagerr.Error of the
// given kind.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, with ok
// reporting whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if casted, ok := err.(*Error); ok {
			e = casted
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}
