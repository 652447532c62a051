package elevateai

import (
	"errors"
	"fmt"
)

// ServiceError is returned when the remote service cannot be reached or
// answers with a non-success HTTP status. StatusCode is zero for transport
// failures where no response was received.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("elevateai %s: transport error: %v", e.Op, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("elevateai %s: unexpected status code %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("elevateai %s: unexpected status code %d", e.Op, e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ProtocolError is returned when the remote service answers successfully but
// the response body cannot be understood.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("elevateai %s: malformed response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// IsProtocolError reports whether err carries a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
