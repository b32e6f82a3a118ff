// Package errs defines the failures returned by the service engine.
//
// Every failure carries a stable machine code and the HTTP status the REST
// layer answers with. Match them with errors.As.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure is implemented by every error in this package.
type Failure interface {
	error
	HTTPStatus() int
	Code() string
}

const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeIllegalMutation    = "ILLEGAL_MUTATION"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternal           = "INTERNAL_ERROR"
)

// ViolationCode identifies why a single field was rejected.
type ViolationCode string

const (
	Missing          ViolationCode = "MISSING"
	OutOfRange       ViolationCode = "OUT_OF_RANGE"
	BelowMinimum     ViolationCode = "BELOW_MINIMUM"
	InvalidBounds    ViolationCode = "INVALID_BOUNDS"
	UnknownReference ViolationCode = "UNKNOWN_REFERENCE"
)

// Violation is a field-level validation error.
type Violation struct {
	Field string        `json:"field"`
	Code  ViolationCode `json:"code"`
}

func (v Violation) String() string {
	return v.Field + ":" + string(v.Code)
}

// ValidationFailure reports one or more rejected fields.
type ValidationFailure struct {
	Violations []Violation
}

func (e *ValidationFailure) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationFailure) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationFailure) Code() string    { return CodeValidationFailed }

// NewValidationFailure returns nil when there is nothing to report.
func NewValidationFailure(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationFailure{Violations: violations}
}

// AuthorizationFailure covers both a missing capability (UNAUTHORIZED) and an
// attempted owner reassignment (ILLEGAL_MUTATION).
type AuthorizationFailure struct {
	code   string
	Reason string
}

func (e *AuthorizationFailure) Error() string {
	if e.Reason == "" {
		return strings.ToLower(e.code)
	}
	return fmt.Sprintf("%s: %s", strings.ToLower(e.code), e.Reason)
}

func (e *AuthorizationFailure) HTTPStatus() int {
	if e.code == CodeIllegalMutation {
		return http.StatusUnprocessableEntity
	}
	return http.StatusForbidden
}

func (e *AuthorizationFailure) Code() string { return e.code }

// NewUnauthorized reports an actor lacking the capability or relationship an
// operation needs.
func NewUnauthorized(reason string) *AuthorizationFailure {
	return &AuthorizationFailure{code: CodeUnauthorized, Reason: reason}
}

// NewIllegalMutation reports an attempt to change an immutable field.
func NewIllegalMutation(field string) *AuthorizationFailure {
	return &AuthorizationFailure{code: CodeIllegalMutation, Reason: field + " cannot be changed"}
}

// NotFoundFailure reports an operation target that does not exist.
type NotFoundFailure struct {
	Resource string
	ID       string
}

func (e *NotFoundFailure) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s <%s> not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

func (e *NotFoundFailure) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundFailure) Code() string    { return CodeNotFound }

func NewNotFound(resource string, id any) *NotFoundFailure {
	return &NotFoundFailure{Resource: resource, ID: fmt.Sprint(id)}
}

// ConflictFailure reports a duplicate creation attempt.
type ConflictFailure struct {
	Resource string
	Reason   string
}

func (e *ConflictFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s already exists: %s", e.Resource, e.Reason)
	}
	return e.Resource + " already exists"
}

func (e *ConflictFailure) HTTPStatus() int { return http.StatusConflict }
func (e *ConflictFailure) Code() string    { return CodeConflict }

func NewConflict(resource, reason string) *ConflictFailure {
	return &ConflictFailure{Resource: resource, Reason: reason}
}

// AuthenticationFailure reports a login with unknown or wrong credentials.
type AuthenticationFailure struct{}

func (e *AuthenticationFailure) Error() string   { return "invalid credentials" }
func (e *AuthenticationFailure) HTTPStatus() int { return http.StatusUnauthorized }
func (e *AuthenticationFailure) Code() string    { return CodeInvalidCredentials }

func NewInvalidCredentials() *AuthenticationFailure {
	return &AuthenticationFailure{}
}

// SystemFailure hides an unexpected persistence error from callers. The cause
// stays reachable through errors.Unwrap for logging.
type SystemFailure struct {
	Op    string
	Cause error
}

func (e *SystemFailure) Error() string {
	return http.StatusText(http.StatusInternalServerError)
}

func (e *SystemFailure) Unwrap() error   { return e.Cause }
func (e *SystemFailure) HTTPStatus() int { return http.StatusInternalServerError }
func (e *SystemFailure) Code() string    { return CodeInternal }

// Internal wraps err unless it already is a Failure.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	return &SystemFailure{Op: op, Cause: err}
}
