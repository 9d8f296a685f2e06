package domain

import (
	"context"
	"errors"
)

// Kind classifies failures so callers can react without knowing which layer produced them.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidArgument
	KindInvalidState
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func newError(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// ErrTestNotFound is returned when a referenced test does not exist.
	ErrTestNotFound = newError(KindNotFound, "test not found")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = newError(KindNotFound, "user not found")
	// ErrAttemptNotFound is returned when a referenced attempt does not exist.
	ErrAttemptNotFound = newError(KindNotFound, "attempt not found")
	// ErrTestHasNoQuestions means there is nothing to score.
	ErrTestHasNoQuestions = newError(KindInvalidState, "test has no questions")
	// ErrQuestionNotInTest indicates an answer references a question of another test.
	ErrQuestionNotInTest = newError(KindInvalidArgument, "question does not belong to test")
	// ErrDuplicateAnswer indicates the same question was answered more than once.
	ErrDuplicateAnswer = newError(KindInvalidArgument, "duplicate answer for question")
	// ErrInvalidOption indicates a selected or correct option outside 1..4.
	ErrInvalidOption = newError(KindInvalidArgument, "option must be between 1 and 4")
	// ErrInvalidTimeWindow indicates an attempt that ends before it starts.
	ErrInvalidTimeWindow = newError(KindInvalidArgument, "end time is before start time")
	// ErrInvalidTest is returned by catalog validation.
	ErrInvalidTest = newError(KindInvalidArgument, "invalid test definition")
	// ErrInvalidUser is returned by signup validation.
	ErrInvalidUser = newError(KindInvalidArgument, "invalid user")
	// ErrInvalidCSV is returned when a question upload has rejected rows.
	ErrInvalidCSV = newError(KindInvalidArgument, "invalid question csv")
	// ErrEmailTaken is returned on signup with an email already registered.
	ErrEmailTaken = newError(KindConflict, "email already registered")
	// ErrTestHasAttempts blocks deleting a test that has recorded attempts.
	ErrTestHasAttempts = newError(KindConflict, "test has recorded attempts")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid credentials")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = newError(KindForbidden, "forbidden")
)

// TransientError wraps a storage or transport failure that the caller may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient marks err as retryable. A nil err stays nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// KindOf resolves the failure kind of err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	var te *TransientError
	if errors.As(err, &te) {
		return KindTransient
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}
