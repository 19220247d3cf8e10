package models

import (
	"errors"
	"fmt"
	"time"
)

// Fatal error taxonomy. Each carries a stable, serializable message so the
// UI layer can render failures without interpretation. Soft warnings
// (resolution miss, enrichment failure, metadata update failure) are logged
// at the call site and never surface as errors.

// ConfigurationError indicates missing credentials or endpoints detected
// by the pre-flight guard clauses.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// NewConfigurationError creates a configuration guard failure
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

// GenerationError indicates the synthesis engine produced insufficient content
type GenerationError struct {
	WordCount int
	Minimum   int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Content generation failed: %d words generated, minimum is %d", e.WordCount, e.Minimum)
}

// PublishError indicates the remote create/update call failed
type PublishError struct {
	Op  string // "create" or "update"
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("Publishing failed (%s): %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates a bulk job exceeded its wall-clock budget
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Job timed out after %s", e.Timeout)
}

// CancellationError indicates an interactive cancellation request
type CancellationError struct {
	Reason string
}

func (e *CancellationError) Error() string {
	if e.Reason == "" {
		return "Optimization cancelled"
	}
	return fmt.Sprintf("Optimization cancelled: %s", e.Reason)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsCancellation reports whether err is (or wraps) a CancellationError
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}
