package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError reports malformed or missing rule/config fields.
// It is fatal at startup and non-fatal on reload.
type ConfigurationError struct {
	Source   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	if e.Source == "" {
		return "invalid configuration: " + strings.Join(e.Problems, "; ")
	}
	return fmt.Sprintf("invalid configuration in %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// IngestionReason classifies why a metric event was rejected.
type IngestionReason string

// Ingestion reasons, also used as the metrics label.
const (
	ReasonUnknownKind      IngestionReason = "unknown_kind"
	ReasonMissingTimestamp IngestionReason = "missing_timestamp"
	ReasonBadValue         IngestionReason = "bad_value"
	ReasonBadOutcome       IngestionReason = "bad_outcome"
	ReasonDecode           IngestionReason = "decode"
)

// IngestionError reports a malformed metric event. Such events are dropped
// and counted, never fatal.
type IngestionError struct {
	Reason IngestionReason
	Detail string
}

func (e *IngestionError) Error() string {
	if e.Detail == "" {
		return "rejected metric event: " + string(e.Reason)
	}
	return fmt.Sprintf("rejected metric event: %s: %s", e.Reason, e.Detail)
}

// DispatchError reports a notification that could not be delivered to a sink
// after all retries.
type DispatchError struct {
	Sink     string
	Attempts int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed after %d attempt(s): %v", e.Sink, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ProbeError describes a failed liveness probe. It is recorded as a metric
// value and never interrupts the scheduler.
type ProbeError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ProbeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("probe %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
