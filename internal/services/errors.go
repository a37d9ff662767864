// Package services defines the business logic for complaints, upvotes, and
// authorities. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComplaintNotFound indicates that the requested complaint does not
	// exist in the store.
	ErrComplaintNotFound = errors.New("complaint not found")

	// ErrAuthorityNotFound indicates that the requested authority does not
	// exist in the store.
	ErrAuthorityNotFound = errors.New("authority not found")

	// ErrDuplicateAuthorityEmail is returned when creating or updating an
	// authority with an email address that is already registered.
	ErrDuplicateAuthorityEmail = errors.New("authority email already exists")

	// ErrStoreUnavailable wraps persistence failures that are transient
	// (connectivity loss, lock contention) rather than logical. Callers may
	// retry; handlers surface it as 503 instead of a plain internal error.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr classifies a raw persistence error before it leaves the service
// layer. Transient driver conditions are wrapped in ErrStoreUnavailable so
// errors.Is works on the result; anything else passes through unchanged.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"database is closed",
		"connection refused",
		"connection reset",
		"bad connection",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return err
}

// ValidationError reports a rejected input field. It is returned before any
// store mutation is attempted, so a failed submission or edit never leaves
// partial state behind.
type ValidationError struct {
	// Field is the name of the offending input field (e.g. "title").
	Field string
	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// invalid is a small constructor to keep validation sites terse.
func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
