package models

import (
	"errors"
	"fmt"
)

// APIError represents a standardized error response of the storefront bridge
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error code constants
const (
	// General errors
	ErrBadRequest       = "BAD_REQUEST"
	ErrNotFound         = "NOT_FOUND"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidationFailed = "VALIDATION_FAILED"

	// Session errors
	ErrCodeLoginRequired  = "LOGIN_REQUIRED"
	ErrCodeSessionExpired = "SESSION_EXPIRED"
	ErrCodeNoSuchAccount  = "NO_SUCH_ACCOUNT"
	ErrCodeWrongPassword  = "WRONG_PASSWORD"
	ErrCodeAuthFailed     = "AUTH_FAILED"

	// Backend errors
	ErrBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCheckoutFailed     = "CHECKOUT_FAILED"
)

// NewAPIError creates a new API error with the given code and message
func NewAPIError(code, message string, details ...map[string]interface{}) APIError {
	err := APIError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	// ErrSessionExpired is returned when the backend rejected the bearer token
	ErrSessionExpired = errors.New("session expired")
	// ErrLoginRequired is returned when an operation needs an authenticated session
	ErrLoginRequired = errors.New("login required")
)

// ValidationError is a local rule violation; it never reaches the network
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation helps callers distinguish local rule violations from backend failures
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AuthErrorKind tells the render layer which recovery to offer
type AuthErrorKind int

const (
	AuthOther AuthErrorKind = iota
	AuthNoSuchAccount
	AuthWrongPassword
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthNoSuchAccount:
		return "no_such_account"
	case AuthWrongPassword:
		return "wrong_password"
	default:
		return "other"
	}
}

// AuthError is a login or register attempt the backend rejected
type AuthError struct {
	Kind   AuthErrorKind
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("authentication failed (%s)", e.Kind)
	}
	return e.Reason
}

// NetworkError means the backend could not be reached
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-success response from the backend
type ServerError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.Status, e.Message)
}

// PartialCheckoutFailure means some order rows of one checkout attempt were not created.
// Rows already created for OrderID stay on the backend.
type PartialCheckoutFailure struct {
	OrderID string
	Created int
	Err     error
}

func (e *PartialCheckoutFailure) Error() string {
	return fmt.Sprintf("checkout %s failed after %d order rows: %v", e.OrderID, e.Created, e.Err)
}

func (e *PartialCheckoutFailure) Unwrap() error { return e.Err }

// IsTransient reports whether err is a network or server failure worth a retry prompt
func IsTransient(err error) bool {
	var netErr *NetworkError
	var srvErr *ServerError
	return errors.As(err, &netErr) || errors.As(err, &srvErr)
}
