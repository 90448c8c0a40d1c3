// Package binding turns a request struct's tagged members into resolved
// parameter bindings, builds the per-handler validation schema, and wraps
// handlers with the request-time extract/validate/inject pipeline.
package binding

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldError is one structured validation failure. Loc addresses the
// offending value in request shape: [kind, wire name, ...path segments].
type FieldError struct {
	Loc   []any  `json:"loc"`
	Msg   string `json:"msg"`
	Type  string `json:"type"`
	Input any    `json:"input,omitempty"`
}

// ValidationError carries every failure for one request. It is converted to
// the configured HTTP response by the registered error handler and never
// crashes the process.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError builds a ValidationError from field errors.
func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "request validation failed"
	case 1:
		return fmt.Sprintf("request validation failed: %s", e.Errors[0].Msg)
	default:
		return fmt.Sprintf("request validation failed: %d errors", len(e.Errors))
	}
}

// engineErrorType maps a validation-engine failure to a stable snake_case
// error type in the response wire shape.
func engineErrorType(fe validator.FieldError) string {
	stringLike := fe.Kind().String() == "string"
	sliceLike := fe.Kind().String() == "slice" || fe.Kind().String() == "array"

	switch fe.Tag() {
	case "required":
		return "missing"
	case "min":
		if stringLike {
			return "string_too_short"
		}
		if sliceLike {
			return "too_short"
		}
		return "greater_than_equal"
	case "max":
		if stringLike {
			return "string_too_long"
		}
		if sliceLike {
			return "too_long"
		}
		return "less_than_equal"
	case "len":
		return "string_length"
	case "gt":
		return "greater_than"
	case "gte":
		return "greater_than_equal"
	case "lt":
		return "less_than"
	case "lte":
		return "less_than_equal"
	case "oneof":
		return "enum"
	case "email", "url", "uri":
		return "value_error"
	case "uuid", "uuid4":
		return "uuid_parsing"
	default:
		return fe.Tag()
	}
}

// engineErrorMessage renders a human-readable message for an engine failure.
func engineErrorMessage(fe validator.FieldError) string {
	stringLike := fe.Kind().String() == "string"

	switch fe.Tag() {
	case "required":
		return "Field required"
	case "min":
		if stringLike {
			return fmt.Sprintf("String should have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case "max":
		if stringLike {
			return fmt.Sprintf("String should have at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("String should have exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("Input should be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Input should be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Input should be one of: %s", fe.Param())
	case "email":
		return "Input is not a valid email address"
	case "url", "uri":
		return "Input is not a valid URL"
	case "uuid", "uuid4":
		return "Input is not a valid UUID"
	default:
		return fmt.Sprintf("Input failed the %s constraint", fe.Tag())
	}
}
