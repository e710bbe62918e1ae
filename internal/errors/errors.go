// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"

	"pinstock/internal/models"
)

// Standard sentinel errors
var (
	ErrNoTargets      = errors.New("no valid targets configured")
	ErrNoPincodes     = errors.New("no pincodes configured")
	ErrNoProducts     = errors.New("no products configured")
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrStoreClosed    = errors.New("status store closed")
	ErrRecordNotFound = errors.New("status record not found")
	ErrCircuitOpen    = errors.New("platform circuit breaker is open")
	ErrAlreadyRunning = errors.New("checker already running")
)

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind string

const (
	// NetworkError covers timeouts, connection failures and non-2xx responses.
	// It is the only kind the orchestrator retries.
	NetworkError FetchErrorKind = "NETWORK_ERROR"
	// ParseError means a response was received but matched no known pattern.
	// It signals platform drift and is surfaced prominently.
	ParseError FetchErrorKind = "PARSE_ERROR"
	// InvalidTarget means the target's URL does not fit the platform's shape.
	InvalidTarget FetchErrorKind = "INVALID_TARGET"
)

// FetchError represents a failed platform fetch. All kinds are recoverable at
// the orchestrator level; none are fatal to the process.
type FetchError struct {
	Kind     FetchErrorKind
	Platform models.Platform
	URL      string
	Pincode  string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s] %s %s pincode %s: %v", e.Kind, e.Platform, e.URL, e.Pincode, e.Err)
	}
	return fmt.Sprintf("fetch error [%s] %s %s pincode %s", e.Kind, e.Platform, e.URL, e.Pincode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the orchestrator should retry this failure.
func (e *FetchError) Retryable() bool {
	return e.Kind == NetworkError
}

// NewFetchError creates a new FetchError.
func NewFetchError(kind FetchErrorKind, target models.Target, err error) *FetchError {
	return &FetchError{
		Kind:     kind,
		Platform: target.Platform,
		URL:      target.ProductURL,
		Pincode:  target.Pincode,
		Err:      err,
	}
}

// AsFetchError extracts a *FetchError from err's chain, or nil.
func AsFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

// DispatchError represents a notification transport failure. It is logged and
// surfaced but never affects stock-state correctness.
type DispatchError struct {
	Channel   string
	EventID   string
	EventKind models.AlertKind
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch error [%s] event %s (%s): %v", e.Channel, e.EventID, e.EventKind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(channel, eventID string, kind models.AlertKind, err error) *DispatchError {
	return &DispatchError{
		Channel:   channel,
		EventID:   eventID,
		EventKind: kind,
		Err:       err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
