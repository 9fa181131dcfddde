package mailhog

import "fmt"

// TransportError reports a failure before any HTTP response was
// obtained: connection refused, DNS failure, interrupted I/O.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mailhog: request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx HTTP response from the server.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mailhog: %s returned HTTP %d", e.URL, e.Code)
}

// DecodeError reports a response body that could not be decoded into
// the expected shape, or one missing required fields.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mailhog: malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mailhog: malformed response: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }
