package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeExchange represents authorization-code exchange failures
	ErrTypeExchange ErrorType = "exchange"
	// ErrTypeRefresh represents refresh-token exchange failures
	ErrTypeRefresh ErrorType = "refresh"
	// ErrTypeStorage represents secret store I/O or decryption failures
	ErrTypeStorage ErrorType = "storage"
	// ErrTypeRemoteAPI represents Strava resource API failures
	ErrTypeRemoteAPI ErrorType = "remote_api"
	// ErrTypeVerification represents webhook handshake failures
	ErrTypeVerification ErrorType = "verification"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeValidation represents validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
	// ErrTypeTimeout represents timeout errors
	ErrTypeTimeout ErrorType = "timeout"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ExchangeError creates a new authorization-code exchange error
func ExchangeError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeExchange,
		Message: msg,
		Cause:   cause,
	}
}

// RefreshError creates a new refresh-token exchange error
func RefreshError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeRefresh,
		Message: msg,
		Cause:   cause,
	}
}

// StorageError creates a new secret store error carrying the owner id
func StorageError(msg string, ownerID string, cause error) *AppError {
	err := &AppError{
		Type:    ErrTypeStorage,
		Message: msg,
		Cause:   cause,
	}
	if ownerID != "" {
		err = err.WithContext("owner_id", ownerID)
	}
	return err
}

// RemoteAPIError creates a new remote resource API error
func RemoteAPIError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeRemoteAPI,
		Message: msg,
		Cause:   cause,
	}
}

// VerificationError creates a new webhook handshake error
func VerificationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeVerification,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// TimeoutError creates a new timeout error
func TimeoutError(operation string) *AppError {
	return &AppError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("timeout during %s", operation),
	}
}

// IsType checks if an error is of a specific type anywhere in its chain
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetType returns the error type if it's an AppError, otherwise ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrTypeInternal
	}

	return appErr.Type
}
