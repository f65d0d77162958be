package report

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyBody marks a response with no usable content. Non-fatal: the day
// is deferred to the retry pass.
var ErrEmptyBody = errors.New("empty response body")

// ErrTimeout indicates the request exceeded its deadline.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// StatusError is an HTTP response with status >= 400; Body carries the error
// payload for diagnostics.
type StatusError struct {
	Code int
	Body []byte
}

func (e StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// NotJSONError is a 2xx response whose body did not decode as JSON. Raw
// keeps the body for the JSON-format passthrough.
type NotJSONError struct {
	Err error
	Raw []byte
}

func (e NotJSONError) Error() string {
	return fmt.Errorf("non-json body: %w", e.Err).Error()
}

func (e NotJSONError) Unwrap() error {
	return e.Err
}

func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	return ErrConnection{Err: err}
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status StatusError
	if errors.As(err, &status) {
		return "http_status"
	}
	var notJSON NotJSONError
	if errors.As(err, &notJSON) {
		return "non_json"
	}
	if errors.Is(err, ErrEmptyBody) {
		return "empty_body"
	}
	return "other"
}

// ExitCode maps a fatal run error onto the process exit code: 2 for
// transport failures, 1 for API protocol errors.
func ExitCode(err error) int {
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return 2
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return 2
	}
	return 1
}
