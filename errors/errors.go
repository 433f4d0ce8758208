package errors

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies the subsystem an error code belongs to. Codes are only
// comparable within one category, so independent taxonomies (packer, unpacker,
// match engine) can coexist without knowing about each other.
type Category string

const (
	CategoryMatch         Category = "MATCH"
	CategoryPacker        Category = "PACKER"
	CategoryUnpacker      Category = "UNPACKER"
	CategorySerialization Category = "SERIALIZATION"
	CategorySystem        Category = "SYSTEM"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// CodeError is a structured error carrying a numeric code scoped to a
// category, plus a stable name and a human-readable message.
type CodeError struct {
	Category  Category               `json:"category"`
	Code      int                    `json:"code"`
	Name      string                 `json:"name"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  ErrorSeverity          `json:"severity"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *CodeError) Error() string {
	var builder strings.Builder

	// Format: [CATEGORY][NAME] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Category, e.Name, e.Message))

	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *CodeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target is a CodeError with the same category and code.
func (e *CodeError) Is(target error) bool {
	if other, ok := target.(*CodeError); ok {
		return e.Category == other.Category && e.Code == other.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *CodeError) WithContext(key string, value interface{}) *CodeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level for the error
func (e *CodeError) WithSeverity(severity ErrorSeverity) *CodeError {
	e.Severity = severity
	return e
}

// Wrap records the underlying cause
func (e *CodeError) Wrap(err error) *CodeError {
	e.Cause = err
	return e
}

// New creates a new CodeError
func New(category Category, code int, name, message string) *CodeError {
	return &CodeError{
		Category:  category,
		Code:      code,
		Name:      name,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  SeverityError,
	}
}

// Newf creates a new CodeError with a formatted message
func Newf(category Category, code int, name, format string, args ...interface{}) *CodeError {
	return New(category, code, name, fmt.Sprintf(format, args...))
}

// WrapError wraps an existing error into a CodeError
func WrapError(err error, category Category, code int, name, message string) *CodeError {
	codeErr := New(category, code, name, message)
	codeErr.Cause = err
	return codeErr
}

// IsCodeError checks if an error is a CodeError
func IsCodeError(err error) bool {
	_, ok := err.(*CodeError)
	return ok
}

// AsCodeError converts an error to CodeError if possible
func AsCodeError(err error) (*CodeError, bool) {
	if codeErr, ok := err.(*CodeError); ok {
		return codeErr, true
	}
	return nil, false
}

// InCategory reports whether err is a CodeError belonging to the category.
func InCategory(err error, category Category) bool {
	if codeErr, ok := AsCodeError(err); ok {
		return codeErr.Category == category
	}
	return false
}

// GetErrorChain returns the chain of errors
func GetErrorChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		err = unwrapError(err)
	}
	return chain
}

// unwrapError unwraps an error to get the underlying cause
func unwrapError(err error) error {
	if err == nil {
		return nil
	}
	if wrapper, ok := err.(interface{ Unwrap() error }); ok {
		return wrapper.Unwrap()
	}
	return nil
}
