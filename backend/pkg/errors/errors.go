package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeCapability represents failures of external generation/storage calls
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeUpstreamFormat represents malformed output from a generation capability
	ErrorTypeUpstreamFormat ErrorType = "upstream_format"
	// ErrorTypeSchema represents graph data-model invariant violations
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeValidation represents caller-supplied input violating a documented constraint
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a missing project or concept
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeStore represents document store infrastructure errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Capability Errors

// ErrCapability is returned when an external generation or storage call fails
// (timeout, quota, network, bad credentials). Never retried by the core.
type ErrCapability struct {
	*BaseError
	Capability string // "text-generation", "audio-generation", "document-store"
}

func NewCapability(capability string, err error) *ErrCapability {
	return &ErrCapability{
		BaseError:  NewBaseError(ErrorTypeCapability, fmt.Sprintf("%s call failed", capability), err),
		Capability: capability,
	}
}

// Upstream Format Errors

// ErrUpstreamFormat is returned when a generation capability produced data
// that cannot be coerced into the expected structured shape.
type ErrUpstreamFormat struct {
	*BaseError
	Expected string
	Received string
}

func NewUpstreamFormat(expected, received string, err error) *ErrUpstreamFormat {
	return &ErrUpstreamFormat{
		BaseError: NewBaseError(ErrorTypeUpstreamFormat, fmt.Sprintf("expected %s, received %s", expected, received), err),
		Expected:  expected,
		Received:  received,
	}
}

// Schema Errors

// ErrSchema is returned when an assembled or loaded graph violates a
// data-model invariant. Always a defect signal, never expected in normal
// operation.
type ErrSchema struct {
	*BaseError
	Violation string
}

func NewSchema(violation string) *ErrSchema {
	return &ErrSchema{
		BaseError: NewBaseError(ErrorTypeSchema, violation, nil),
		Violation: violation,
	}
}

// Validation Errors

// ErrValidation is returned when caller-supplied input violates a documented
// constraint, e.g. a confidence rating outside [1,5].
type ErrValidation struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Not Found Errors

// ErrProjectNotFound is returned when a referenced project does not exist
type ErrProjectNotFound struct {
	*BaseError
	ProjectID string
}

func NewProjectNotFound(projectID string) *ErrProjectNotFound {
	return &ErrProjectNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("project not found: %s", projectID), nil),
		ProjectID: projectID,
	}
}

// ErrConceptNotFound is returned when a referenced concept does not exist in a graph
type ErrConceptNotFound struct {
	*BaseError
	ConceptName string
}

func NewConceptNotFound(conceptName string) *ErrConceptNotFound {
	return &ErrConceptNotFound{
		BaseError:   NewBaseError(ErrorTypeNotFound, fmt.Sprintf("concept not found: %s", conceptName), nil),
		ConceptName: conceptName,
	}
}

// Store Errors

// ErrStore is returned when the document store fails at the infrastructure level
type ErrStore struct {
	*BaseError
	Operation string
}

func NewStore(operation string, err error) *ErrStore {
	return &ErrStore{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

func (e *BaseError) base() *BaseError { return e }

// TypeOf returns the ErrorType of an error, or "" for untyped errors
func TypeOf(err error) ErrorType {
	for err != nil {
		if typed, ok := err.(interface{ base() *BaseError }); ok {
			return typed.base().Type
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Snippet truncates raw upstream output for error diagnostics. The cut
// lands on a rune boundary so a multi-byte character is never split.
func Snippet(raw []byte) string {
	const limit = 200
	if len(raw) <= limit {
		return string(raw)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return string(raw[:cut]) + "..."
}

// HTTPStatus maps an error to the status code the wire contract prescribes:
// validation failures are client errors, missing projects/concepts are 404,
// everything else is a server error.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
