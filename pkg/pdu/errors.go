package pdu

import "fmt"

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConnectivity      ErrorType = "connectivity"
	ErrorTypeAuth              ErrorType = "authentication"
	ErrorTypeParse             ErrorType = "parse"
	ErrorTypeSelectorNotFound  ErrorType = "outlet not found"
	ErrorTypeAmbiguousSelector ErrorType = "ambiguous outlet"
	ErrorTypeActionTimeout     ErrorType = "action timeout"
	ErrorTypeSession           ErrorType = "browser session"
)

// Error represents a PDU client error
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Sentinel errors
var (
	ErrInvalidCredentials = &Error{Type: ErrorTypeAuth, Message: "invalid credentials"}
	ErrNoOutlets          = &Error{Type: ErrorTypeParse, Message: "status page yielded no outlets"}
)

// NewError creates a new PDU error
func NewError(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConnectivityError creates a new connectivity error
func NewConnectivityError(message string, cause error) *Error {
	return NewError(ErrorTypeConnectivity, message, cause)
}

// NewAuthError creates a new authentication error
func NewAuthError(message string, cause error) *Error {
	return NewError(ErrorTypeAuth, message, cause)
}

// NewParseError creates a new parse error
func NewParseError(message string, cause error) *Error {
	return NewError(ErrorTypeParse, message, cause)
}

// NewSelectorNotFoundError creates a new selector-not-found error
func NewSelectorNotFoundError(message string) *Error {
	return NewError(ErrorTypeSelectorNotFound, message, nil)
}

// NewAmbiguousSelectorError creates a new ambiguous-selector error
func NewAmbiguousSelectorError(message string) *Error {
	return NewError(ErrorTypeAmbiguousSelector, message, nil)
}

// NewActionTimeoutError creates a new action-timeout error
func NewActionTimeoutError(message string, cause error) *Error {
	return NewError(ErrorTypeActionTimeout, message, cause)
}

// NewSessionError creates a new browser-session error
func NewSessionError(message string, cause error) *Error {
	return NewError(ErrorTypeSession, message, cause)
}
