package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"

	// DomainAuthorizationError indicates insufficient permissions
	DomainAuthorizationError DomainErrorType = "AUTHORIZATION_ERROR"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		Retryable:  false,
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Clone returns a copy that can be decorated without touching the receiver.
// Package-level sentinels must be cloned before WithDetail or WithCause.
func (e *DomainError) Clone() *DomainError {
	details := make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	return &DomainError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Details:    details,
		Cause:      e.Cause,
		Retryable:  e.Retryable,
		StatusCode: e.StatusCode,
	}
}

// WithMessage replaces the human readable message
func (e *DomainError) WithMessage(message string) *DomainError {
	e.Message = message
	return e
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// AsDomainError finds the first DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	if err == nil {
		return nil, false
	}
	var domainErr *DomainError
	if stderrors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// domainErrorTypeToStatusCode maps error types to HTTP status codes
func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400 // Bad Request
	case DomainBusinessRuleError:
		return 422 // Unprocessable Entity
	case DomainNotFoundError:
		return 404 // Not Found
	case DomainConflictError:
		return 409 // Conflict
	case DomainAuthorizationError:
		return 403 // Forbidden
	case DomainInfrastructureError:
		return 500 // Internal Server Error
	default:
		return 500 // Internal Server Error
	}
}

// Exercise link errors

var (
	ErrInvalidFormat = NewDomainError(
		DomainValidationError,
		"INVALID_FORMAT",
		"Identifier or link type is malformed",
	)

	ErrInvalidDisplayOrder = NewDomainError(
		DomainValidationError,
		"INVALID_DISPLAY_ORDER",
		"Display order cannot be negative",
	)

	ErrInvalidSuggestionCount = NewDomainError(
		DomainValidationError,
		"INVALID_SUGGESTION_COUNT",
		"Suggestion count is out of range",
	)

	ErrSelfLink = NewDomainError(
		DomainBusinessRuleError,
		"SELF_LINK",
		"Cannot link an exercise to itself",
	)

	ErrSourceNotFoundOrInactive = NewDomainError(
		DomainBusinessRuleError,
		"SOURCE_NOT_FOUND_OR_INACTIVE",
		"Source exercise not found or inactive",
	)

	ErrTargetNotFoundOrInactive = NewDomainError(
		DomainBusinessRuleError,
		"TARGET_NOT_FOUND_OR_INACTIVE",
		"Target exercise not found or inactive",
	)

	ErrSourceTypeMismatch = NewDomainError(
		DomainBusinessRuleError,
		"SOURCE_TYPE_MISMATCH",
		"Source exercise must be of type 'Workout'",
	)

	ErrTargetTypeMismatch = NewDomainError(
		DomainBusinessRuleError,
		"TARGET_TYPE_MISMATCH",
		"Target exercise does not carry the type required by the link type",
	)

	ErrRestExclusivity = NewDomainError(
		DomainBusinessRuleError,
		"REST_EXCLUSIVITY",
		"REST exercises cannot be linked",
	)

	ErrDuplicateLink = NewDomainError(
		DomainConflictError,
		"DUPLICATE_LINK",
		"A link of this type already exists between these exercises",
	)

	ErrCircularReference = NewDomainError(
		DomainBusinessRuleError,
		"CIRCULAR_REFERENCE",
		"This link would create a circular reference",
	)

	ErrCardinalityExceeded = NewDomainError(
		DomainBusinessRuleError,
		"CARDINALITY_EXCEEDED",
		"Maximum number of links of this type has been reached",
	)

	ErrLinkNotFound = NewDomainError(
		DomainNotFoundError,
		"LINK_NOT_FOUND",
		"The requested exercise link does not exist",
	)

	ErrOwnershipMismatch = NewDomainError(
		DomainAuthorizationError,
		"OWNERSHIP_MISMATCH",
		"Link does not belong to the specified exercise",
	)

	// Transaction errors
	ErrConcurrentModification = NewDomainError(
		DomainConflictError,
		"CONCURRENT_MODIFICATION",
		"The resource was modified by another process",
	).WithRetryable(true)

	// Infrastructure errors
	ErrEventPublishFailed = NewDomainError(
		DomainInfrastructureError,
		"EVENT_PUBLISH_FAILED",
		"Failed to publish domain event",
	).WithRetryable(true)
)

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}

		if _, exists := result[field]; !exists {
			result[field] = make([]string, 0)
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}
