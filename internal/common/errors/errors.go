// internal/common/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"time"
)

type ErrorCode string

// Transport, envelope, and parse failures never leave their stage as
// StandardErrors; they degrade to per-row sentinels. Their codes exist so
// GetErrorCategory can label metrics for those stages.
const (
	ErrCodeTransportFailed  ErrorCode = "TRANSPORT_ERROR"
	ErrCodeInvalidEnvelope  ErrorCode = "INVALID_ENVELOPE"
	ErrCodeParseFailed      ErrorCode = "PARSE_ERROR"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_ERROR"
	ErrCodeDatasetInvalid   ErrorCode = "DATASET_ERROR"
	ErrCodeStorageFailed    ErrorCode = "STORAGE_ERROR"
	ErrCodeCacheFailed      ErrorCode = "CACHE_ERROR"
	ErrCodeIndexFailed      ErrorCode = "INDEX_ERROR"
	ErrCodeNotifySendFailed ErrorCode = "NOTIFY_SEND_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatasetInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetInvalid,
		Message:   "Input dataset is missing required columns",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorageFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Report archive write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Completion cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexFailed,
		Message:   "Report indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotifySendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotifySendFailed,
		Message:   "Reply dispatch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeTransportFailed, ErrCodeInvalidEnvelope:
		return "transport"
	case ErrCodeParseFailed:
		return "parse"
	case ErrCodeConfigInvalid, ErrCodeDatasetInvalid:
		return "config"
	case ErrCodeStorageFailed, ErrCodeCacheFailed, ErrCodeIndexFailed:
		return "storage"
	case ErrCodeNotifySendFailed:
		return "notify"
	default:
		return "unknown"
	}
}

// IsRetryable reports whether an error carries a retryable StandardError.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// AsStandardError normalizes any error to a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
