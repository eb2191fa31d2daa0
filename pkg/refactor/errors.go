package refactor

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a planning error. The class decides whether the whole
// run stops (configuration and provider errors) or only the affected
// environment's plan is rejected.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates invalid caller input: the feature is
	// not enabled, an unsupported execution mode was requested, or an override
	// names a path that does not exist. Rejected before any comparison work.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassUnexplainedChange indicates the old and new resource sets
	// differ by more than relocation. Hard failure for the environment.
	ErrorClassUnexplainedChange ErrorClass = "unexplained-change"

	// ErrorClassCyclicReference indicates the resource reference graph did not
	// converge, which only happens on malformed (cyclic) input.
	ErrorClassCyclicReference ErrorClass = "cyclic-reference"

	// ErrorClassProvider wraps a failure from the infrastructure provider
	// client. Propagated as-is: masking or retrying it risks planning against
	// stale state.
	ErrorClassProvider ErrorClass = "provider"
)

// Error is a classified planning error.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Path is the resource path that caused the error, if applicable.
	Path string `json:"path,omitempty"`

	// Environment is the deployment target the error is scoped to, if any.
	Environment string `json:"environment,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.Environment != "" {
		msg = fmt.Sprintf("%s (environment=%s)", msg, e.Environment)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two refactor errors are equal
// when their classes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithPath adds resource path context to the error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithEnvironment adds deployment target context to the error.
func (e *Error) WithEnvironment(env Environment) *Error {
	e.Environment = env.String()
	return e
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, err error) *Error {
	return &Error{Class: ErrorClassConfiguration, Message: message, Err: err}
}

// NewUnexplainedChangeError creates an unexplained-change error.
func NewUnexplainedChangeError(message string) *Error {
	return &Error{Class: ErrorClassUnexplainedChange, Message: message}
}

// NewCyclicReferenceError creates a cyclic-reference error.
func NewCyclicReferenceError(message string) *Error {
	return &Error{Class: ErrorClassCyclicReference, Message: message}
}

// NewProviderError wraps a provider client failure.
func NewProviderError(message string, err error) *Error {
	return &Error{Class: ErrorClassProvider, Message: message, Err: err}
}

// IsConfiguration reports whether err is classified as a configuration error.
func IsConfiguration(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfiguration
	}
	return false
}

// IsUnexplainedChange reports whether err is classified as an
// unexplained-change error.
func IsUnexplainedChange(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassUnexplainedChange
	}
	return false
}

// IsCyclicReference reports whether err is classified as a cyclic-reference
// error.
func IsCyclicReference(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassCyclicReference
	}
	return false
}

// IsProvider reports whether err wraps a provider client failure.
func IsProvider(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassProvider
	}
	return false
}
