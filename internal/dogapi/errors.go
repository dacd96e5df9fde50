package dogapi

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed    = errors.New("dogapi: request failed")
	ErrServiceError     = errors.New("dogapi: service error")
	ErrDecodeResponse   = errors.New("dogapi: failed to decode response")
	ErrUnexpectedStatus = errors.New("dogapi: unexpected response status")
	ErrResponseTooLarge = errors.New("dogapi: response body too large")
)

// ServiceError is returned for any non-2xx answer from the image API.
type ServiceError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dogapi: service returned status %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("dogapi: service returned status %d", e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}

	return nil, false
}
