package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRegistry Category = "registry"
	CategoryReactive Category = "reactive"
	CategoryConfig   Category = "config"
	CategoryDevtools Category = "devtools"
	CategoryCLI      Category = "cli"
)

// StatekitError is a structured error with suggestions and documentation.
type StatekitError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (registry, reactive, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Subject names what the error is about: a registry key, a config
	// file path or a listen address.
	Subject string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StatekitError) Error() string {
	msg := e.Message
	if e.Subject != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Subject)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StatekitError) Unwrap() error {
	return e.Wrapped
}

// WithSubject records what the error is about.
func (e *StatekitError) WithSubject(s string) *StatekitError {
	e.Subject = s
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StatekitError) WithSuggestion(s string) *StatekitError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *StatekitError) WithExample(ex string) *StatekitError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StatekitError) WithDetail(d string) *StatekitError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StatekitError) Wrap(err error) *StatekitError {
	e.Wrapped = err
	return e
}

// New creates a StatekitError from a registered error code.
func New(code string) *StatekitError {
	template, ok := registry[code]
	if !ok {
		return &StatekitError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StatekitError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new StatekitError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *StatekitError {
	return &StatekitError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StatekitError.
func FromError(err error, code string) *StatekitError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StatekitError); ok {
		return se
	}
	return New(code).Wrap(err)
}
