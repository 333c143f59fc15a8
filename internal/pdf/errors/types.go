package errors

import (
	"errors"
	"fmt"
	"time"
)

// PDFError represents a form synthesis, merge or detection error with context
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FieldName   string    `json:"field_name,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Err         error     `json:"-"`
}

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeUnknownFieldKind
	ErrorTypeConflict
	ErrorTypeImageDecode
	ErrorTypeInvalidStructure
	ErrorTypeForeignHandle
	ErrorTypeMissingObject
	ErrorTypeUnsupportedFeature
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Sentinel errors for errors.Is matching against a *PDFError
var (
	ErrConfiguration    = &PDFError{Type: ErrorTypeConfiguration}
	ErrUnknownFieldKind = &PDFError{Type: ErrorTypeUnknownFieldKind}
	ErrConflict         = &PDFError{Type: ErrorTypeConflict}
	ErrImageDecode      = &PDFError{Type: ErrorTypeImageDecode}
	ErrInvalidStructure = &PDFError{Type: ErrorTypeInvalidStructure}
	ErrForeignHandle    = &PDFError{Type: ErrorTypeForeignHandle}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.FieldName != "" {
		msg += fmt.Sprintf(" (field %q)", e.FieldName)
	}
	if e.PageNumber > 0 {
		msg += fmt.Sprintf(" (page %d)", e.PageNumber)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PDFError of the same type. An unknown field
// kind is also a configuration error.
func (e *PDFError) Is(target error) bool {
	var t *PDFError
	if !errors.As(target, &t) {
		return false
	}
	if t.Type == e.Type {
		return true
	}
	return t.Type == ErrorTypeConfiguration && e.Type == ErrorTypeUnknownFieldKind
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfiguration:
		return "CONFIGURATION"
	case ErrorTypeUnknownFieldKind:
		return "UNKNOWN_FIELD_KIND"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeImageDecode:
		return "IMAGE_DECODE"
	case ErrorTypeInvalidStructure:
		return "INVALID_STRUCTURE"
	case ErrorTypeForeignHandle:
		return "FOREIGN_HANDLE"
	case ErrorTypeMissingObject:
		return "MISSING_OBJECT"
	case ErrorTypeUnsupportedFeature:
		return "UNSUPPORTED_FEATURE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeConfiguration, ErrorTypeUnknownFieldKind, ErrorTypeConflict:
		return SeverityError
	case ErrorTypeImageDecode:
		return SeverityWarning
	case ErrorTypeForeignHandle, ErrorTypeInvalidStructure, ErrorTypeMissingObject:
		return SeverityCritical
	case ErrorTypeUnsupportedFeature:
		return SeverityError
	default:
		return SeverityError
	}
}

// IsRecoverable determines if an error type leaves the batch usable.
// Only a page image that fails to decode is skipped; everything else aborts.
func (et ErrorType) IsRecoverable() bool {
	return et == ErrorTypeImageDecode
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	e := NewPDFError(errorType, err.Error())
	e.Err = err
	return e
}

// Configuration returns a configuration error for a bad field specification
func Configuration(format string, args ...interface{}) *PDFError {
	return NewPDFError(ErrorTypeConfiguration, fmt.Sprintf(format, args...))
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithField adds the offending field name to an existing PDFError
func (e *PDFError) WithField(name string) *PDFError {
	e.FieldName = name
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error indicates an internal defect
func (e *PDFError) IsCritical() bool {
	return e.GetSeverity() == SeverityCritical
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not a PDFError
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}
