package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransportError is returned when an upstream HTTP exchange fails, either at the
// network level (Err set) or with a non-success status (StatusCode set).
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the exchange may succeed.
func (e *TransportError) Retryable() bool {
	if e.Err != nil {
		if errors.Is(e.Err, context.Canceled) {
			return false
		}
		var netErr net.Error
		if errors.As(e.Err, &netErr) {
			return true
		}
		return errors.Is(e.Err, context.DeadlineExceeded)
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ParseError is returned when a listing payload cannot be decoded.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err wraps a retryable TransportError.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}
