package services

import (
	"errors"
	"fmt"
	"net/http"

	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
)

// Error types. Each maps to one HTTP status.
const (
	ErrTypeNotFound           = "NOT_FOUND"
	ErrTypeConflict           = "CONFLICT"
	ErrTypePreconditionFailed = "PRECONDITION_FAILED"
	ErrTypeForbidden          = "FORBIDDEN"
	ErrTypeValidation         = "VALIDATION_ERROR"
	ErrTypeInfrastructure     = "INFRASTRUCTURE_ERROR"
	ErrTypeUnauthorized       = "UNAUTHORIZED"
	ErrTypeRateLimit          = "RATE_LIMIT"
	ErrTypeInternal           = "INTERNAL_ERROR"
)

// ===============================
// ERROR TYPES
// ===============================

// ServiceError represents a structured service error
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// WithDetail attaches one detail to the error.
func (e *ServiceError) WithDetail(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewFieldValidationError reports per-field validation failures.
func NewFieldValidationError(errs models.ValidationErrors) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeValidation,
		Message:    "Validation failed",
		Details:    errs.Fields(),
		StatusCode: http.StatusBadRequest,
		Cause:      errs,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeConflict,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusConflict,
	}
}

// NewPreconditionFailedError reports a state that does not yet allow the operation.
func NewPreconditionFailedError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypePreconditionFailed,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusPreconditionFailed,
	}
}

// NewInfrastructureError reports a storage or dependency failure.
func NewInfrastructureError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInfrastructure,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeRateLimit,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// ===============================
// ERROR UTILITIES
// ===============================

// GetServiceError extracts a ServiceError from an error chain, or wraps
// err as an internal error.
func GetServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	internal := NewInternalError("An unexpected error occurred")
	internal.Cause = err
	return internal
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Type == errorType
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, ErrTypeValidation)
}

// ===============================
// COMMON ERROR PATTERNS
// ===============================

// EntityNotFoundError creates a standard entity not found error
func EntityNotFoundError(entityType string, id interface{}) *ServiceError {
	return NewNotFoundError(fmt.Sprintf("%s not found", entityType)).
		WithDetail("resource", entityType).
		WithDetail("id", id)
}

// InsufficientPermissionsError creates a standard permissions error
func InsufficientPermissionsError(action policy.Action, kind policy.Kind) *ServiceError {
	return NewForbiddenError(fmt.Sprintf("Insufficient permissions to %s %s", action, kind)).
		WithDetail("operation", string(action)).
		WithDetail("resource", string(kind))
}

// authorize returns a Forbidden error unless the principal may act on r.
func authorize(p *models.Principal, r policy.Resource, a policy.Action) error {
	if p == nil {
		return NewUnauthorizedError("Authentication required")
	}
	if !policy.CanAccess(p, r, a) {
		return InsufficientPermissionsError(a, r.Kind)
	}
	return nil
}

// repositoryError classifies a repository failure for entity.
func repositoryError(entity string, id interface{}, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return EntityNotFoundError(entity, id)
	case errors.Is(err, repositories.ErrDuplicate):
		e := NewConflictError(fmt.Sprintf("%s already exists", entity), "DUPLICATE")
		e.Cause = err
		return e
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	return NewInfrastructureError(fmt.Sprintf("failed to access %s storage", entity), err)
}

// validationError turns model validation failures into a ServiceError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs models.ValidationErrors
	if errors.As(err, &errs) {
		return NewFieldValidationError(errs)
	}
	return NewValidationError(err.Error(), err)
}
