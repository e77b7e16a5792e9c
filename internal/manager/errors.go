package manager

import (
	"errors"

	"tokstream/internal/engine"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error when a requested model id is not present in the registry.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// IsDependencyUnavailable reports whether err indicates a missing engine runtime.
func IsDependencyUnavailable(err error) bool { return engine.IsDependencyUnavailable(err) }

// streamStartedError wraps a failure that happened after NDJSON output
// began. The response status is already committed, so callers must not
// write an error body.
type streamStartedError struct{ err error }

func (e streamStartedError) Error() string { return "stream interrupted: " + e.err.Error() }
func (e streamStartedError) Unwrap() error { return e.err }

// ErrStreamStarted marks err as having happened after output was written.
func ErrStreamStarted(err error) error { return streamStartedError{err: err} }

// IsStreamStarted reports whether err happened after output was written.
func IsStreamStarted(err error) bool {
	var e streamStartedError
	return errors.As(err, &e)
}
