package client

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnreachable marks connection-class failures that outlived the retry policy
	ErrServiceUnreachable = errors.New("service unreachable")
	// ErrJobNotFound is returned when the service does not know the job id
	ErrJobNotFound = errors.New("job not found")
	// ErrValidation is returned for rejected input, locally or by the service
	ErrValidation = errors.New("validation error")
	// ErrUnexpectedResponse is returned for server errors and undecodable responses
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// RequestError describes a failed call to the transcription service.
// Kind is one of the sentinel errors above and can be matched with errors.Is.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Cause      error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
