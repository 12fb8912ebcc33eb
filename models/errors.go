package models

import (
	"errors"
	"fmt"
)

// ErrorKind partitions attempt failures by where they arose.
type ErrorKind string

const (
	// ErrValidation covers bad input at intake (wrong file type, no file,
	// attempt while another is in flight). Recovered locally.
	ErrValidation ErrorKind = "validation"
	// ErrEncoding covers failures reading or decoding the file content.
	ErrEncoding ErrorKind = "encoding"
	// ErrTransport covers any network or API failure from the provider.
	ErrTransport ErrorKind = "transport"
	// ErrFormat covers provider responses missing required fields.
	ErrFormat ErrorKind = "format"
)

// GenericErrorMessage is shown when a failure carries no message of its own.
const GenericErrorMessage = "An unknown error occurred."

// ClassifyError is the single error type surfaced by the classification
// flow. The Message is shown to the user verbatim.
type ClassifyError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ClassifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClassifyError) Unwrap() error { return e.Err }

func NewValidationError(message string) *ClassifyError {
	return &ClassifyError{Kind: ErrValidation, Message: message}
}

func NewEncodingError(message string, err error) *ClassifyError {
	return &ClassifyError{Kind: ErrEncoding, Message: message, Err: err}
}

func NewTransportError(err error) *ClassifyError {
	message := GenericErrorMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return &ClassifyError{Kind: ErrTransport, Message: message, Err: err}
}

func NewFormatError(message string) *ClassifyError {
	return &ClassifyError{Kind: ErrFormat, Message: message}
}

// KindOf returns the taxonomy kind of err, or an empty kind when err is not
// a ClassifyError.
func KindOf(err error) ErrorKind {
	var ce *ClassifyError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// UserMessage extracts the message to surface for err, falling back to the
// generic text when none is available.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClassifyError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
