// Package apperr defines the error taxonomy shared by the assistant pipeline.
// Callers wrap these sentinels with fmt.Errorf("...: %w", ...) and test them
// with errors.Is at the boundaries (HTTP API, Telegram handlers).
package apperr

import (
	"context"
	"errors"
)

var (
	// ErrConfiguration means a required credential or setting is missing.
	// It is fatal to the feature and never absorbed by a fallback.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackendUnavailable means the generation backend could not be reached.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// ErrBackendError means the backend answered with a non-success or unusable response.
	ErrBackendError = errors.New("generation backend error")

	// ErrMalformedOutput means generation succeeded but the structured output did not validate.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrUnauthorized means the requester is not a member of the workspace.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// IsBackendFailure reports whether err comes from the generation backend
// itself (unreachable or non-success), as opposed to configuration or parsing.
func IsBackendFailure(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrBackendError)
}

// IsCanceled reports whether err is a caller-driven cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
