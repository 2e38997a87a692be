// Package apierr defines the typed error kinds the orchestration core can
// surface to its caller. Every constructor returns an *Error tagged with a
// Kind; Is (or errors.As to *Error) matches it through wrapping. Only
// ModelUnavailable and ValidatorUnavailable wrap an underlying cause, which
// errors.Is/errors.As can reach through Unwrap.
package apierr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error kinds of the error handling design.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindIllegalState         Kind = "ILLEGAL_STATE"
	KindIllegalTransition    Kind = "ILLEGAL_TRANSITION"
	KindBudgetExceeded       Kind = "BUDGET_EXCEEDED"
	KindModelUnavailable     Kind = "MODEL_UNAVAILABLE"
	KindValidatorUnavailable Kind = "VALIDATOR_UNAVAILABLE"
	KindConfigError          Kind = "CONFIG_ERROR"
)

// Error is the concrete error type returned by this package's constructors.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error kind, for callers that want to branch on it
// without relying on errors.Is against every sentinel.
func (e *Error) Kind() Kind {
	return e.kind
}

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func NotFound(message string) error {
	return newErr(KindNotFound, message, nil)
}

func IllegalState(message string) error {
	return newErr(KindIllegalState, message, nil)
}

func IllegalTransition(message string) error {
	return newErr(KindIllegalTransition, message, nil)
}

func BudgetExceeded(message string) error {
	return newErr(KindBudgetExceeded, message, nil)
}

func ModelUnavailable(cause error) error {
	return newErr(KindModelUnavailable, "model adapter unavailable", cause)
}

func ValidatorUnavailable(cause error) error {
	return newErr(KindValidatorUnavailable, "validator adapter unavailable", cause)
}

func ConfigError(message string) error {
	return newErr(KindConfigError, message, nil)
}

// Is reports whether err carries the given kind, looking through wrapping.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
