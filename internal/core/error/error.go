package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "requested key not found"
	// StoreErrorMessage describes data store failures.
	StoreErrorMessage = "data store operation failed"
)

// Kind categorises an error for routing and retry decisions.
type Kind string

const (
	// KindInvalidInput marks bad caller input. Never retried.
	KindInvalidInput Kind = "invalid_input"
	// KindClassification marks LLM classification failures after retry.
	KindClassification Kind = "classification"
	// KindUnsupportedAction marks free text that maps to no known action.
	KindUnsupportedAction Kind = "unsupported_action"
	// KindNotFound marks a missing record or unknown proposal id.
	KindNotFound Kind = "not_found"
	// KindAlreadyResolved marks a consent decision on a non-pending proposal.
	KindAlreadyResolved Kind = "already_resolved"
	// KindExpired marks a consent decision past the proposal deadline.
	KindExpired Kind = "expired"
	// KindDataAccess marks a data store failure. Safe to retry the whole query.
	KindDataAccess Kind = "data_access"
	// KindDownstreamAction marks a failed or timed-out downstream action call.
	KindDownstreamAction Kind = "downstream_action"
	// KindInvalidState marks protocol misuse, e.g. executing an unapproved proposal.
	KindInvalidState Kind = "invalid_state"
	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = "internal"
)

// Error wraps an underlying error with a Kind, an HTTP status and a safe message.
type Error struct {
	Kind    Kind
	Err     error
	Status  int
	Message string
	// OutcomeUnknown is set on downstream timeouts where the action may or may
	// not have been performed. Callers must not treat it as success or failure.
	OutcomeUnknown bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, or defers to the wrapped chain.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind
	}
	return errors.Is(e.Err, target)
}

// New creates a new Error with the provided information.
func New(kind Kind, err error, status int, message string) *Error {
	return &Error{
		Kind:    kind,
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// InvalidInput reports bad caller input.
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, nil, http.StatusBadRequest, message)
}

// Classification reports an LLM classification failure.
func Classification(err error, message string) *Error {
	return New(KindClassification, err, http.StatusBadGateway, message)
}

// UnsupportedAction reports free text that maps to no action in a handler's table.
func UnsupportedAction(message string) *Error {
	return New(KindUnsupportedAction, nil, http.StatusUnprocessableEntity, message)
}

// NotFound reports a missing scoped record or unknown proposal id.
func NotFound(err error, message string) *Error {
	return New(KindNotFound, err, http.StatusNotFound, message)
}

// AlreadyResolved reports a consent decision against a non-pending proposal.
func AlreadyResolved(message string) *Error {
	return New(KindAlreadyResolved, nil, http.StatusConflict, message)
}

// Expired reports a consent decision past the proposal deadline.
func Expired(message string) *Error {
	return New(KindExpired, nil, http.StatusGone, message)
}

// DataAccess reports a data store failure.
func DataAccess(err error) *Error {
	return New(KindDataAccess, err, http.StatusBadGateway, StoreErrorMessage)
}

// Downstream reports a downstream action failure. unknown marks the timeout case
// where the outcome cannot be determined.
func Downstream(err error, message string, unknown bool) *Error {
	e := New(KindDownstreamAction, err, http.StatusBadGateway, message)
	e.OutcomeUnknown = unknown
	return e
}

// InvalidState reports protocol misuse by the caller of an internal contract.
func InvalidState(message string) *Error {
	return New(KindInvalidState, nil, http.StatusInternalServerError, message)
}

// KindOf extracts the Kind from an error chain, KindInternal if none applies.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error chain to an HTTP status code for the API layer.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// OutcomeUnknown reports whether the error chain carries an unknown downstream outcome.
func OutcomeUnknown(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.OutcomeUnknown
	}
	return false
}
