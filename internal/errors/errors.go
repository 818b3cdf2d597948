package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Task configuration errors (TASK-001 to TASK-099).
	// These are caught before any network I/O happens.
	ErrCodeTaskConfigMissing ErrorCode = "TASK-001"
	ErrCodeTaskConfigInvalid ErrorCode = "TASK-002"
	ErrCodeTaskTypeUnknown   ErrorCode = "TASK-003"

	// Plan errors (PLAN-001 to PLAN-099)
	ErrCodePlanEmpty       ErrorCode = "PLAN-001"
	ErrCodePlanDepMissing  ErrorCode = "PLAN-002"
	ErrCodePlanCyclicDep   ErrorCode = "PLAN-003"
	ErrCodePlanRootMissing ErrorCode = "PLAN-004"

	// Backend errors (BACKEND-001 to BACKEND-099)
	ErrCodeBackendNotFound  ErrorCode = "BACKEND-001"
	ErrCodeBackendConfig    ErrorCode = "BACKEND-002"
	ErrCodeBackendAuth      ErrorCode = "BACKEND-003"
	ErrCodeBackendAPI       ErrorCode = "BACKEND-004"
	ErrCodeBackendRateLimit ErrorCode = "BACKEND-005"
	ErrCodeBackendTimeout   ErrorCode = "BACKEND-006"

	// Stream errors (STREAM-001 to STREAM-099)
	ErrCodeStreamFraming     ErrorCode = "STREAM-001"
	ErrCodeStreamTermination ErrorCode = "STREAM-002"
	ErrCodeStreamClosed      ErrorCode = "STREAM-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound   ErrorCode = "IO-001"
	ErrCodeFileReadFailed ErrorCode = "IO-002"
	ErrCodeFileUnmarshal  ErrorCode = "IO-003"
)

// ForgeError represents an enhanced error with code, suggestions, and documentation
type ForgeError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *ForgeError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// New creates a new ForgeError
func New(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ForgeError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ForgeError) WithSuggestion(suggestion string) *ForgeError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ForgeError) WithSuggestions(suggestions ...string) *ForgeError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *ForgeError) WithDocs(url string) *ForgeError {
	e.DocsURL = url
	return e
}

// IsCode reports whether err carries the given error code anywhere in its
// unwrap chain.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if fe, ok := err.(*ForgeError); ok && fe.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Common error constructors for frequently used errors

// NewTaskConfigMissingError creates an error for a required field absent
// from a task configuration
func NewTaskConfigMissingError(taskType, field string) *ForgeError {
	return New(ErrCodeTaskConfigMissing, fmt.Sprintf("%s task is missing required field %q", taskType, field)).
		WithSuggestion(fmt.Sprintf("Set %q in the task configuration", field)).
		WithSuggestion("Run 'appforge init' to regenerate a valid project file")
}

// NewPlanDepMissingError creates an error for a dependency that does not
// resolve within the plan
func NewPlanDepMissingError(taskName, dep string) *ForgeError {
	return New(ErrCodePlanDepMissing, fmt.Sprintf("task %q depends on %q which is not in the plan", taskName, dep)).
		WithSuggestion("Declare the dependency task in the project configuration").
		WithSuggestion("Dependencies can only reference tasks in earlier layers")
}

// NewBackendAuthError creates a backend authentication error
func NewBackendAuthError(backend string) *ForgeError {
	return New(ErrCodeBackendAuth, fmt.Sprintf("authentication failed for backend: %s", backend)).
		WithSuggestion(fmt.Sprintf("Set the %s_API_KEY environment variable", strings.ToUpper(backend))).
		WithSuggestion("Check if your API key is valid and not expired")
}

// NewBackendRateLimitError creates a rate limit error
func NewBackendRateLimitError(backend string, retryAfter string) *ForgeError {
	msg := fmt.Sprintf("rate limit exceeded for backend: %s", backend)
	if retryAfter != "" {
		msg += fmt.Sprintf(" (retry after: %s)", retryAfter)
	}

	return New(ErrCodeBackendRateLimit, msg).
		WithSuggestion("Wait before retrying the request").
		WithSuggestion("Use a different backend if available")
}

// NewStreamTerminationError creates an error for a stream that ended (or was
// aborted) before a terminal frame arrived
func NewStreamTerminationError(cause error) *ForgeError {
	e := New(ErrCodeStreamTermination, "stream ended without result")
	e.Cause = cause
	return e.
		WithSuggestion("Check server logs for the failing generation phase").
		WithSuggestion("Re-run the generation; there is no resume-from-task")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *ForgeError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *ForgeError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
