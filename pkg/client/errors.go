package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrEnvelopeFailed is returned when the gateway answers success:false.
	ErrEnvelopeFailed = errors.New("gateway reported failure")

	// ErrEnvelopeShape is returned when a body is not a {success, data} envelope.
	ErrEnvelopeShape = errors.New("malformed gateway envelope")
)

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and a locally exhausted quota.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassEnvelope represents bodies that decode but are not usable.
	ErrorClassEnvelope ErrorClass = "envelope"
)

// GatewayError represents a failed gateway call with additional context.
type GatewayError struct {
	StatusCode int
	Class      ErrorClass
	Path       string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s error (status %d) on %s: %s: %v",
			e.Class, e.StatusCode, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("gateway %s error (status %d) on %s: %s",
		e.Class, e.StatusCode, e.Path, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of a *GatewayError anywhere in err's chain, or
// an empty class.
func ClassOf(err error) ErrorClass {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Class
	}
	return ""
}

// classifyStatus maps an HTTP status to an error class. 2xx and 304 map to
// the empty class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and envelope errors repeat deterministically
		return false
	}
}
