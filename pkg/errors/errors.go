// Package errors provides custom error types for the scanapi system.
// These errors enable programmatic error checking across the registry,
// the store and the HTTP boundary, which maps each type to a status code.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the scanapi system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidURL indicates that a URL failed the well-formedness check
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidCredential indicates that a secret did not verify
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrEncoding indicates that an artifact could not be encoded
	ErrEncoding = errors.New("encoding failed")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// FieldError describes one invalid location in a request body.
type FieldError struct {
	Loc  string `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// ValidationError represents a validation failure. Fields lists every
// invalid location and Body carries the raw request body that failed.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Fields  []FieldError
	Body    []byte
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	if len(e.Fields) > 0 && e.Message == "" {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Loc+": "+f.Msg)
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NewBodyValidationError creates a ValidationError for a request body.
func NewBodyValidationError(fields []FieldError, body []byte) *ValidationError {
	return &ValidationError{Fields: fields, Body: body}
}

// InvalidURLError is returned when an endpoint URL fails the well-formedness check.
type InvalidURLError struct {
	URL string
}

// Error implements the error interface
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("url %q is not a valid endpoint url", e.URL)
}

// Is implements errors.Is support
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// NewInvalidURLError creates a new InvalidURLError
func NewInvalidURLError(url string) *InvalidURLError {
	return &InvalidURLError{URL: url}
}

// InvalidCredentialError is returned when a secret does not verify.
// It deliberately carries nothing about what mismatched.
type InvalidCredentialError struct{}

// Error implements the error interface
func (e *InvalidCredentialError) Error() string {
	return "invalid credential"
}

// Is implements errors.Is support
func (e *InvalidCredentialError) Is(target error) bool {
	return target == ErrInvalidCredential
}

// NewInvalidCredentialError creates a new InvalidCredentialError
func NewInvalidCredentialError() *InvalidCredentialError {
	return &InvalidCredentialError{}
}

// EncodingError represents a failure to build an artifact from a payload.
// UserSupplied is set when the payload came straight from a request.
type EncodingError struct {
	PayloadLen   int
	UserSupplied bool
	Message      string
	Err          error
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error (payload %d bytes): %s", e.PayloadLen, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// NewEncodingError creates a new EncodingError
func NewEncodingError(payloadLen int, message string, err error) *EncodingError {
	return &EncodingError{
		PayloadLen: payloadLen,
		Message:    message,
		Err:        err,
	}
}

// ConflictError represents a uniqueness violation on a resource key.
type ConflictError struct {
	Resource string
	ID       string
	Err      error
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Resource, e.ID)
}

// Unwrap implements errors.Unwrap
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, id string, err error) *ConflictError {
	return &ConflictError{Resource: resource, ID: id, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "update", "fetch", "list", "open"
	Resource  string // "endpoint", "store", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidURL checks if an error is an invalid url error
func IsInvalidURL(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

// IsInvalidCredential checks if an error is a credential mismatch
func IsInvalidCredential(err error) bool {
	return errors.Is(err, ErrInvalidCredential)
}

// IsEncoding checks if an error is an artifact encoding error
func IsEncoding(err error) bool {
	return errors.Is(err, ErrEncoding)
}

// As is an alias for the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is an alias for the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}
