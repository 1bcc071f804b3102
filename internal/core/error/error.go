package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// PersistenceErrorMessage describes repository failures the pipeline
	// survives in degraded mode.
	PersistenceErrorMessage = "persistence operation failed"
)

// Sentinel errors for the pipeline error taxonomy. Only ErrModelNotTrained
// is fatal; every other condition is recovered at the component that
// detects it.
var (
	// ErrModelNotTrained means classification was attempted before the
	// intent model was trained. Fatal at startup.
	ErrModelNotTrained = errors.New("intent model not trained")
	// ErrCorpusLoad means the training corpus could not be loaded; the
	// classifier substitutes the built-in default intent set.
	ErrCorpusLoad = errors.New("corpus load failed")
	// ErrUnknownEntityType means one entity rule was misconfigured; the
	// extractor skips it and continues with the remaining types.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrFlowStepNotFound means a flow referenced a missing step id; the
	// engine aborts the flow back to idle.
	ErrFlowStepNotFound = errors.New("flow step not found")
	// ErrSessionExpired means a context outlived its deadline; a fresh one
	// is created transparently.
	ErrSessionExpired = errors.New("session expired")
	// ErrPersistence means a store/repository call failed; the in-memory
	// turn result is still served.
	ErrPersistence = errors.New("persistence unavailable")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
