package checker

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimited is wrapped by NetworkError when a call is refused locally
// or the upstream answered 429.
var ErrRateLimited = errors.New("upstream rate limited")

// NetworkError reports a transport-level failure talking to an upstream.
type NetworkError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline or client timeout.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(e.Err, &timeout) && timeout.Timeout()
}

// DecodeError reports a response body that does not have the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
