package ports

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repositories. Services translate them into AccessControlError.
var (
	ErrNotFound   = errors.New("not found")
	ErrStaleState = errors.New("record changed since it was read")
)

// AccessControlError is the typed error returned by access-control services.
// It is defined here so infrastructure can depend on the error contract without
// importing application-level implementations.
type AccessControlError interface {
	error
	Code() int
	Message() string
}

type accessControlError struct {
	code    int
	message string
}

func (e *accessControlError) Error() string   { return e.message }
func (e *accessControlError) Code() int       { return e.code }
func (e *accessControlError) Message() string { return e.message }

const (
	ACCodeUnknown          = 0
	ACCodeNotFound         = 1
	ACCodeForbidden        = 2
	ACCodeValidation       = 3
	ACCodeStateConflict    = 4
	ACCodeConfigurationGap = 5
)

// NewAccessControlError constructs a typed AccessControlError.
func NewAccessControlError(code int, message string) AccessControlError {
	return &accessControlError{code: code, message: message}
}

func NewValidationError(format string, args ...any) AccessControlError {
	return NewAccessControlError(ACCodeValidation, fmt.Sprintf(format, args...))
}

func NewNotFoundError(format string, args ...any) AccessControlError {
	return NewAccessControlError(ACCodeNotFound, fmt.Sprintf(format, args...))
}

func NewStateConflictError(format string, args ...any) AccessControlError {
	return NewAccessControlError(ACCodeStateConflict, fmt.Sprintf(format, args...))
}

func NewForbiddenError(format string, args ...any) AccessControlError {
	return NewAccessControlError(ACCodeForbidden, fmt.Sprintf(format, args...))
}

func NewConfigurationGapError(format string, args ...any) AccessControlError {
	return NewAccessControlError(ACCodeConfigurationGap, fmt.Sprintf(format, args...))
}

// ErrorCode extracts the code of an AccessControlError anywhere in err's chain.
func ErrorCode(err error) int {
	var ace AccessControlError
	if errors.As(err, &ace) {
		return ace.Code()
	}
	return ACCodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code int) bool {
	return err != nil && ErrorCode(err) == code
}
