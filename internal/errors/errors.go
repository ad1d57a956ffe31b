// Package errors provides the structured error taxonomies used by
// collectors and the InfluxDB writer. It is deliberately named errors, like
// its counterpart in the teacher codebase, and is never imported alongside
// the standard library errors package under the same identifier.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a collector-side failure for circuit breaker purposes.
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindAuth    Kind = "auth"
	KindParse   Kind = "parse"
	KindTimeout Kind = "timeout"
)

// CollectorError is a structured error raised by a collector's collect()
// call. All four kinds count as failures against the collector's circuit
// breaker; Auth is a Fetch-class failure for breaker purposes but is kept
// distinct here so it can be logged and alerted on separately.
type CollectorError struct {
	Kind       Kind
	CollectorID string
	Op         string
	StatusCode int
	Err        error
}

func (e *CollectorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s failed (status %d): %v", e.CollectorID, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.CollectorID, e.Op, e.Err)
}

func (e *CollectorError) Unwrap() error { return e.Err }

// BreakerFailure reports whether this error should be recorded as a
// circuit breaker failure. All classified collector errors do; the
// distinction between Fetch and Auth is for logging only.
func (e *CollectorError) BreakerFailure() bool { return true }

// NewFetchError wraps a network/DNS/non-2xx failure.
func NewFetchError(collectorID, op string, statusCode int, err error) *CollectorError {
	return &CollectorError{Kind: KindFetch, CollectorID: collectorID, Op: op, StatusCode: statusCode, Err: err}
}

// NewAuthError wraps a 401/403 from the device.
func NewAuthError(collectorID, op string, statusCode int, err error) *CollectorError {
	return &CollectorError{Kind: KindAuth, CollectorID: collectorID, Op: op, StatusCode: statusCode, Err: err}
}

// NewParseError wraps a page that fetched successfully but yielded no
// parseable data.
func NewParseError(collectorID, op string, err error) *CollectorError {
	return &CollectorError{Kind: KindParse, CollectorID: collectorID, Op: op, Err: err}
}

// NewTimeoutError wraps a deadline-exceeded failure.
func NewTimeoutError(collectorID, op string, err error) *CollectorError {
	return &CollectorError{Kind: KindTimeout, CollectorID: collectorID, Op: op, Err: err}
}

// IsKind reports whether err is a *CollectorError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *CollectorError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// Classify returns the Kind of err if it is a *CollectorError, and false
// otherwise (e.g. a context deadline error that never reached a
// collector-specific classification).
func Classify(err error) (Kind, bool) {
	var ce *CollectorError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// WriteErrorKind categorizes a failure from the InfluxDB writer. Write
// errors are never fed to a collector's circuit breaker (spec §7): the
// breaker protects against device/collector failure, not store failure.
type WriteErrorKind string

const (
	WriteErrorTransport WriteErrorKind = "transport"
	WriteErrorAuth      WriteErrorKind = "auth"
	WriteErrorPayload   WriteErrorKind = "payload"
)

// WriteError is a structured error raised by the writer's Write call.
type WriteError struct {
	Kind       WriteErrorKind
	StatusCode int
	Err        error
}

func (e *WriteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("influx write failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("influx write failed (%s): %v", e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ClassifyWriteStatus maps an HTTP status code from InfluxDB to a
// WriteErrorKind.
func ClassifyWriteStatus(statusCode int) WriteErrorKind {
	switch {
	case statusCode == 401 || statusCode == 403:
		return WriteErrorAuth
	case statusCode >= 400 && statusCode < 500:
		return WriteErrorPayload
	default:
		return WriteErrorTransport
	}
}
