package atcf

import (
	"errors"
	"fmt"
)

// Row-level errors. A row failing with one of these is logged and skipped.
var (
	ErrBlankLine       = errors.New("blank line")
	ErrHeaderLine      = errors.New("header line")
	ErrShortLine       = errors.New("too few columns")
	ErrUnknownLineType = errors.New("unrecognized line type")
	ErrWrongLineType   = errors.New("unexpected line type")
	ErrBadProbability  = errors.New("probability out of range")
	ErrNonMonotonic    = errors.New("valid time not increasing")
	ErrDuplicateLine   = errors.New("duplicate line")
	ErrNoMatch         = errors.New("no matching track")
	ErrMissingField    = errors.New("required field missing")
)

// ErrInvalidTime is returned for a well-formed looking timestamp that does
// not name a real instant. It is always wrapped in a FatalError.
var ErrInvalidTime = errors.New("invalid timestamp")

// FatalError aborts a run. Configuration mistakes and semantically invalid
// input that the rest of the run would silently misinterpret end up here.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a FatalError. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Fatalf formats a FatalError.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Reason returns a short metric label for a row error.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrBlankLine):
		return "blank"
	case errors.Is(err, ErrHeaderLine):
		return "header"
	case errors.Is(err, ErrShortLine):
		return "short_line"
	case errors.Is(err, ErrUnknownLineType):
		return "unknown_type"
	case errors.Is(err, ErrWrongLineType):
		return "wrong_type"
	case errors.Is(err, ErrBadProbability):
		return "bad_probability"
	case errors.Is(err, ErrNonMonotonic):
		return "non_monotonic"
	case errors.Is(err, ErrDuplicateLine):
		return "duplicate"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case IsFatal(err):
		return "fatal"
	default:
		return "other"
	}
}
