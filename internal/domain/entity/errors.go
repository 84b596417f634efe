package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrFetchFailed indicates that the essay page was unreachable or the expected
	// content structure was absent.
	ErrFetchFailed = errors.New("essay fetch failed")

	// ErrTranslationFailed indicates that the translation API errored, timed out,
	// or returned an empty or malformed response.
	ErrTranslationFailed = errors.New("essay translation failed")

	// ErrCorruptArchive indicates that the persisted archive could not be parsed.
	ErrCorruptArchive = errors.New("archive is corrupt")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
