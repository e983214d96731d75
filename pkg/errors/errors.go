package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Recipe errors
	ErrRecipeInvalid ErrorCode = "RECIPE_INVALID"
	ErrRecipeLoad    ErrorCode = "RECIPE_LOAD"
	ErrStepFailed    ErrorCode = "STEP_FAILED"

	// Operation errors. These abort a recipe run immediately.
	ErrNoTestOutput       ErrorCode = "NO_TEST_OUTPUT"
	ErrNoFileToOverride   ErrorCode = "NO_FILE_TO_OVERRIDE"
	ErrAmbiguousTarget    ErrorCode = "AMBIGUOUS_OR_MISSING_TARGET"
	ErrSourceNotFound     ErrorCode = "SOURCE_FILE_NOT_FOUND"
	ErrCommandTimedOut    ErrorCode = "COMMAND_TIMED_OUT"
	ErrCommandStart       ErrorCode = "COMMAND_START"
	ErrCommandCancelled   ErrorCode = "COMMAND_CANCELLED"
	ErrRollbackFailed     ErrorCode = "ROLLBACK_FAILED"
	ErrPathEscape         ErrorCode = "PATH_ESCAPE"
	ErrWorkspaceProvision ErrorCode = "WORKSPACE_PROVISION"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
	ErrBackup     ErrorCode = "BACKUP"
)

// Sentinels for errors.Is checks. Matching is by code, so any *ReciperError carrying
// the same code matches regardless of message or details.
var (
	NoTestOutput     = New(ErrNoTestOutput, "no test output")
	NoFileToOverride = New(ErrNoFileToOverride, "no file to override")
	AmbiguousTarget  = New(ErrAmbiguousTarget, "no file or multiple files found")
	SourceNotFound   = New(ErrSourceNotFound, "source file not found")
	CommandTimedOut  = New(ErrCommandTimedOut, "command timed out")
	CommandCancelled = New(ErrCommandCancelled, "command cancelled")
	RollbackFailed   = New(ErrRollbackFailed, "rollback failed")
	PathEscape       = New(ErrPathEscape, "path escapes root")
)

// ReciperError represents a structured error with code and details
type ReciperError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ReciperError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ReciperError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ReciperError) Is(target error) bool {
	var targetErr *ReciperError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ReciperError with the given code and message
func New(code ErrorCode, message string) *ReciperError {
	return &ReciperError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ReciperError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ReciperError {
	return &ReciperError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ReciperError
func Wrap(err error, code ErrorCode, message string) *ReciperError {
	if err == nil {
		return nil
	}
	return &ReciperError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ReciperError {
	if err == nil {
		return nil
	}
	return &ReciperError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ReciperError) WithDetail(key string, value interface{}) *ReciperError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ReciperError) WithDetails(details map[string]interface{}) *ReciperError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var reciperErr *ReciperError
	if errors.As(err, &reciperErr) {
		return reciperErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ReciperError
func GetErrorCode(err error) ErrorCode {
	var reciperErr *ReciperError
	if errors.As(err, &reciperErr) {
		return reciperErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ReciperError
func GetErrorDetails(err error) map[string]interface{} {
	var reciperErr *ReciperError
	if errors.As(err, &reciperErr) {
		return reciperErr.Details
	}
	return nil
}
