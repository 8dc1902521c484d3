// Package errs provides the unified error type used across bucketgallery.
//
// Every subsystem (credential store, storage drivers, image client, form)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to decide how to surface a failure without
// importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindPermissionDenied, "failed to list objects", s3Err)
//
//	// In a view, check the error kind:
//	if errs.IsConfiguration(err) {
//	    http.Redirect(w, r, "/setup", http.StatusSeeOther)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing provider-specific codes.
// All backends (S3, MinIO, Azure, the local credential file) map their
// native errors to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindConfiguration            // no credentials, or credentials unusable
	ErrKindValidation               // required form field missing
	ErrKindRemote                   // network failure or malformed response
	ErrKindNotFound                 // no such bucket / object
	ErrKindPermissionDenied         // access denied / bad signature
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindStorage                  // local persistence medium failed
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindValidation:
		return "validation"
	case ErrKindRemote:
		return "remote"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all bucketgallery subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original SDK-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConfiguration reports whether err means the client has no usable credentials.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsValidation reports whether err was caused by a missing form field.
func IsValidation(err error) bool {
	return KindOf(err) == ErrKindValidation
}

// IsRemote reports whether err came from the object store: transport,
// permission, missing resource, timeout or a malformed response.
func IsRemote(err error) bool {
	switch KindOf(err) {
	case ErrKindRemote, ErrKindNotFound, ErrKindPermissionDenied, ErrKindTimeout:
		return true
	}
	return false
}

// IsNotFound reports whether err represents a missing bucket or object.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsStorage reports whether err is a failure of the local persistence medium.
func IsStorage(err error) bool {
	return KindOf(err) == ErrKindStorage
}

// KindOf extracts the ErrKind from the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
