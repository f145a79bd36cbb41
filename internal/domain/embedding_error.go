package domain

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// FailureKind classifies why an embedding call produced no vector.
type FailureKind string

// Embedding failure kinds. Values double as metric labels.
const (
	FailureTimeout           FailureKind = "timeout"
	FailureConnectionRefused FailureKind = "connection_refused"
	FailureTransport         FailureKind = "transport"
	FailureHTTPStatus        FailureKind = "http_status"
	FailureMalformedJSON     FailureKind = "malformed_json"
	FailureEmptyResult       FailureKind = "empty_result"
	FailureDimensionMismatch FailureKind = "dimension_mismatch"
	FailureInvalidKey        FailureKind = "invalid_key"
)

// EmbeddingError is a classified embedding failure. It matches ErrEmbeddingProviderError
// and the underlying cause with errors.Is.
type EmbeddingError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

// NewEmbeddingError creates a classified embedding failure. err may be nil.
func NewEmbeddingError(kind FailureKind, detail string, err error) *EmbeddingError {
	return &EmbeddingError{Kind: kind, Detail: detail, Err: err}
}

func (e *EmbeddingError) Error() string {
	msg := "embedding " + string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmbeddingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEmbeddingProviderError}
	}
	return []error{ErrEmbeddingProviderError, e.Err}
}

// EmbeddingFailureKind extracts the failure kind from err.
func EmbeddingFailureKind(err error) (FailureKind, bool) {
	var ee *EmbeddingError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// ClassifyTransportError maps an HTTP client error to a failure kind.
func ClassifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureConnectionRefused
	}
	return FailureTransport
}
