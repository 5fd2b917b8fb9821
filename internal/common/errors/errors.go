// Package errors provides standardized error handling for the reminder pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeInternal        ErrorCode = "INTERNAL"

	ErrCodeStoreQueryFailed ErrorCode = "STORE_QUERY_FAILED"
	ErrCodePatientNotFound  ErrorCode = "PATIENT_NOT_FOUND"

	ErrCodeMailNotConfigured      ErrorCode = "MAIL_NOT_CONFIGURED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReminderRunFailed      ErrorCode = "REMINDER_RUN_FAILED"

	ErrCodeEventPayloadInvalid ErrorCode = "EVENT_PAYLOAD_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnauthenticatedError creates a non-retryable authentication error for the
// manual trigger boundary. No side effects may have happened when it is raised.
func NewUnauthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthenticated,
		Message:   "Caller must be authenticated",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure. The detailed cause is meant for
// server-side logs only and must not be exposed to callers.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreQueryFailedError creates a retryable document-store error.
func NewStoreQueryFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Document store query failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPatientNotFoundError creates a non-retryable missing-reference error.
// Callers in the batch path skip rather than fail on this.
func NewPatientNotFoundError(patientID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePatientNotFound,
		Message:   "Patient record not found",
		Details:   fmt.Sprintf("patientId: %s", patientID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMailNotConfiguredError creates a non-retryable configuration error. This
// is a skip condition, never surfaced to callers as a failure.
func NewMailNotConfiguredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMailNotConfigured,
		Message:   "Outbound mail identity is not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable transport error.
func NewNotificationSendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("recipient: %s, error: %s", recipient, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewReminderRunFailedError reports a batch run with at least one failed
// dispatch. Raised only after every dispatch in the run has settled.
func NewReminderRunFailedError(failed, total int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReminderRunFailed,
		Message:   "Reminder run completed with failures",
		Details:   fmt.Sprintf("%d of %d dispatches failed", failed, total),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewEventPayloadInvalidError creates a non-retryable event validation error.
func NewEventPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventPayloadInvalid,
		Message:   "Event payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf returns the error code of a StandardError, or ErrCodeInternal for
// anything else.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}
