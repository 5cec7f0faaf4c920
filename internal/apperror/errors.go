// Package apperror defines the structured error taxonomy shared by the store,
// the auth service and the HTTP layer. Callers match kinds with errors.Is.
package apperror

import (
	"errors"
	"sort"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindPasswordMismatch   Kind = "password_mismatch"
	KindMissingCredentials Kind = "missing_credentials"
	KindUserNotFound       Kind = "user_not_found"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindOTPExpired         Kind = "otp_expired"
	KindOTPMismatch        Kind = "otp_mismatch"
	KindInvalidToken       Kind = "invalid_token"
	KindExpiredToken       Kind = "expired_token"
	KindNotifierFailure    Kind = "notifier_failure"
	KindCorruptCredential  Kind = "corrupt_credential"
	KindInternal           Kind = "internal"
)

// Error is an expected, caller-recoverable failure.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field reasons for validation failures.
	Fields map[string]string
	Cause  error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation creates a validation error with field-level detail.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrValidation         = New(KindValidation, "validation failed")
	ErrDuplicateEmail     = New(KindDuplicateEmail, "email already registered")
	ErrPasswordMismatch   = New(KindPasswordMismatch, "passwords do not match")
	ErrMissingCredentials = New(KindMissingCredentials, "please provide email and password")
	ErrUserNotFound       = New(KindUserNotFound, "user not found")
	ErrInvalidCredentials = New(KindInvalidCredentials, "incorrect email or password")
	ErrOTPExpired         = New(KindOTPExpired, "OTP has expired, please request a new one")
	ErrOTPMismatch        = New(KindOTPMismatch, "invalid OTP")
	ErrInvalidToken       = New(KindInvalidToken, "invalid token")
	ErrExpiredToken       = New(KindExpiredToken, "token expired")
	ErrNotifierFailure    = New(KindNotifierFailure, "failed to deliver notification")
	ErrCorruptCredential  = New(KindCorruptCredential, "stored credential is corrupt")
)
