package apiclient

import "errors"

// ErrRequestFailed is the single failure kind reported by the client. The
// underlying cause is kept for logging but callers should not branch on it.
var ErrRequestFailed = errors.New("ticket api request failed")

// RequestError describes a failed operation with a generic message.
type RequestError struct {
	Op      string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap exposes the cause for logging.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is matches ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

func failed(op, message string, err error) error {
	return &RequestError{Op: op, Message: message, Err: err}
}
