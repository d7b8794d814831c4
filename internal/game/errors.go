package game

import "fmt"

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StateError reports an operation that is invalid for the game's
// current status.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func statef(format string, args ...any) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError covers both invalid sessions and valid sessions
// acting out of turn.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func authorizationf(format string, args ...any) error {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing game, player or image.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// FailureReason classifies image-generation failures. The core passes
// these through untouched; it never retries.
type FailureReason string

const (
	FailureRateLimited       FailureReason = "rate_limited"
	FailureBilling           FailureReason = "billing"
	FailureContentPolicy     FailureReason = "content_policy"
	FailureInvalidCredential FailureReason = "invalid_credential"
	FailureOther             FailureReason = "other"
)

// ExternalServiceError wraps a failed call to the image-generation
// collaborator.
type ExternalServiceError struct {
	Reason  FailureReason
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("image generation failed (%s)", e.Reason)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
