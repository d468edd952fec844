package assistant

import (
	"fmt"

	"github.com/ent0n29/coachvoice/internal/reliability"
)

// ConnectivityError means the assistant endpoint could not be reached at all.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("assistant unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) ErrorClass() reliability.Class { return reliability.ClassDispatch }

// ServerError means the endpoint answered but could not produce a reply.
type ServerError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant server error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("assistant server error (status %d): %s", e.StatusCode, e.Detail)
}

func (e *ServerError) Unwrap() error { return e.Err }

func (e *ServerError) ErrorClass() reliability.Class { return reliability.ClassDispatch }

// Retryable reports whether re-sending the same message may succeed.
func (e *ServerError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.StatusCode)
}
