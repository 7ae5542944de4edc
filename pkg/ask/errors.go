package ask

import (
	"errors"
	"fmt"
)

// UnknownErrorMessage is used when the service fails without an error message.
const UnknownErrorMessage = "Unknown error"

// TransportError means no parseable response was received: network failure,
// timeout, cancellation or a body that is not JSON.
type TransportError struct {
	StatusCode int // zero when nothing was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ask transport error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ask transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a well-formed response that signals failure, either by
// status code or by a populated error field.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
