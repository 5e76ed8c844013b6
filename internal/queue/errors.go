package queue

import (
	"errors"
	"fmt"
)

// ErrBatchNotFound is returned when a batch id is not in the pending queue
var ErrBatchNotFound = errors.New("batch not found")

// ErrBatchInFlight is returned when cancelling a batch that already started processing
var ErrBatchInFlight = errors.New("batch already processing")

// ValidationError represents an invalid enqueue request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ConfigMissingError means the tenant has no active messaging configuration.
// Fatal for the batch: retrying without operator action cannot succeed,
// but the batch still follows the normal retry/abandon path.
type ConfigMissingError struct {
	TenantID string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("no active messaging configuration for tenant %s", e.TenantID)
}

// RateLimitError means a send ceiling was hit before the batch could be sent
type RateLimitError struct {
	TenantID string
	Scope    string // "daily", "monthly" or "velocity"
	Limit    int
	Current  int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tenant %s hit %s limit (%d/%d)", e.TenantID, e.Scope, e.Current, e.Limit)
}
