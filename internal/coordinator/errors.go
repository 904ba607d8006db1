package coordinator

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned when a required field is missing or empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited is returned when the submission source exceeded its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidCommand is returned for unrecognized siren commands.
	ErrInvalidCommand = errors.New("invalid siren command")
	// ErrTenantResolution is returned when a tenant reference cannot be resolved.
	ErrTenantResolution = errors.New("tenant resolution failure")
)

// InputError names the field that failed validation.
type InputError struct {
	// Field is the offending request field.
	Field string
	// Reason describes what is wrong with it.
	Reason string
}

// Error implements error.
func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// RateLimitError tells the caller when to retry.
type RateLimitError struct {
	// Source is the throttled admission key.
	Source string
	// RetryAfter is how long the source should wait.
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// CommandError carries the rejected siren command.
type CommandError struct {
	// Command is the raw command as received.
	Command string
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %q (expected on, off, mute or unmute)", ErrInvalidCommand, e.Command)
}

// Unwrap lets errors.Is match ErrInvalidCommand.
func (e *CommandError) Unwrap() error {
	return ErrInvalidCommand
}

// IsUserError reports whether err was caused by caller input rather than the system.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrInvalidCommand) ||
		errors.Is(err, ErrTenantResolution)
}
