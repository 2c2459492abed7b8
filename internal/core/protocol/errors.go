package protocol

import (
	"errors"
)

var (
	// ErrEmptyEnvelope means an envelope carried no event kind this server knows.
	ErrEmptyEnvelope = errors.New("envelope has no event")
	// ErrInvalidEnvelope means the bytes are not a well formed envelope.
	ErrInvalidEnvelope = errors.New("invalid envelope")
	// ErrUnsupportedMessage means the value has no wire representation.
	ErrUnsupportedMessage = errors.New("unsupported message type")
)

// ErrorCode classifies codec failures for logging.
type ErrorCode int

const (
	ErrorCodeEmptyEnvelope ErrorCode = 2001
	ErrorCodeMalformed     ErrorCode = 2002
	ErrorCodeUnsupported   ErrorCode = 2003
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeEmptyEnvelope:
		return "empty_envelope"
	case ErrorCodeMalformed:
		return "malformed"
	case ErrorCodeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is a codec failure with a code and the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of a codec error, or 0.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
