package orchestrator

import (
	"errors"
	"fmt"
)

// Kind classifies orchestrator failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindStoreUnavailable
	KindSynthesis
)

var (
	// ErrValidation: the phrase is missing, empty or whitespace-only.
	ErrValidation = errors.New("phrase not provided")
	// ErrStoreUnavailable: the record store could not be read or written.
	ErrStoreUnavailable = errors.New("cache store unavailable")
	// ErrSynthesis: the engine or the audio upload failed.
	ErrSynthesis = errors.New("speech synthesis failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	case KindSynthesis:
		return ErrSynthesis
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by Handle. It matches its Kind's sentinel with errors.Is
// and unwraps to the underlying cause.
type Error struct {
	Kind Kind
	Op   string // stage that failed: validate, lookup, synthesize, persist
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
