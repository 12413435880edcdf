// Package errs holds the error classes shared by services and transports.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated        = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrStaleReference         = errors.New("stale menu reference")
	ErrValidation             = errors.New("validation failed")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrUpstream               = errors.New("upstream failure")
)

// ErrAlreadyReviewed is returned when a review for the same item, user and order exists.
var ErrAlreadyReviewed = NewValidation("You have already reviewed this item for this order")

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

// NewValidation creates a ValidationError.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StaleReferenceError reports a cart or order line whose menu item no longer exists.
type StaleReferenceError struct {
	MenuID string
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("menu item %q no longer exists", e.MenuID)
}

func (e *StaleReferenceError) Unwrap() error {
	return ErrStaleReference
}

// UpstreamError wraps a failure reported by an external provider.
type UpstreamError struct {
	Provider string
	Message  string
}

func (e *UpstreamError) Error() string {
	return e.Provider + ": " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Message returns the caller-facing message for err, or fallback when err
// carries nothing that is safe to expose.
func Message(err error, fallback string) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var staleErr *StaleReferenceError
	if errors.As(err, &staleErr) {
		return staleErr.Error()
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Message
	}

	return fallback
}
