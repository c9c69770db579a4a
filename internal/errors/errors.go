// Package errors provides structured error types for asanasync.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for asanasync.
const (
	// Remote source errors
	CodeRemoteTransient Code = "REMOTE_TRANSIENT"
	CodeRemoteNotFound  Code = "REMOTE_NOT_FOUND"
	CodeRemotePermanent Code = "REMOTE_PERMANENT"

	// Normalization errors
	CodeParseSkippable Code = "PARSE_SKIPPABLE"

	// Store errors
	CodeStoreWriteFailed Code = "STORE_WRITE_FAILED"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// Category groups error codes by how the caller should react.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryRetryable errors are retried with backoff before surfacing.
	CategoryRetryable
	// CategorySkippable errors skip the current unit (project, field) and
	// let the run continue.
	CategorySkippable
	// CategoryFatal errors abort the current batch.
	CategoryFatal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeRemoteTransient:  CategoryRetryable,
	CodeRemoteNotFound:   CategorySkippable,
	CodeRemotePermanent:  CategorySkippable,
	CodeParseSkippable:   CategorySkippable,
	CodeStoreWriteFailed: CategoryFatal,
	CodeConfigInvalid:    CategoryFatal,
	CodeConfigMissing:    CategoryFatal,
}

// SyncError is the structured error type for asanasync.
type SyncError struct {
	Code   Code
	What   string
	Why    string
	Status int // HTTP status for remote errors, 0 otherwise
	Cause  error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// Category returns the error category for retry/skip/abort decisions.
func (e *SyncError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// Is reports whether target is a SyncError with the same code.
func (e *SyncError) Is(target error) bool {
	t, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *SyncError) WithCause(err error) *SyncError {
	return &SyncError{
		Code:   e.Code,
		What:   e.What,
		Why:    e.Why,
		Status: e.Status,
		Cause:  err,
	}
}

// --- Error constructors ---

// ErrRemoteTransient returns an error for a retryable remote failure
// (429 or 5xx) that exhausted its retry budget.
func ErrRemoteTransient(status int, attempts int) *SyncError {
	return &SyncError{
		Code:   CodeRemoteTransient,
		What:   fmt.Sprintf("remote request failed with status %d", status),
		Why:    fmt.Sprintf("gave up after %d attempts", attempts),
		Status: status,
	}
}

// ErrRemoteNotFound returns an error for a missing remote resource (404).
// The affected project is skipped, not the whole run.
func ErrRemoteNotFound(resource string) *SyncError {
	return &SyncError{
		Code:   CodeRemoteNotFound,
		What:   fmt.Sprintf("%s not found or access denied", resource),
		Status: 404,
	}
}

// ErrRemotePermanent returns an error for a non-retryable remote failure.
func ErrRemotePermanent(status int, detail string) *SyncError {
	return &SyncError{
		Code:   CodeRemotePermanent,
		What:   fmt.Sprintf("remote request rejected with status %d", status),
		Why:    detail,
		Status: status,
	}
}

// ErrStoreWrite returns an error for a failed merge. The batch has no
// partial effect and may be retried wholesale.
func ErrStoreWrite(op string, cause error) *SyncError {
	return &SyncError{
		Code:  CodeStoreWriteFailed,
		What:  fmt.Sprintf("store write failed during %s", op),
		Why:   "the batch was rolled back and left no partial effect",
		Cause: cause,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *SyncError {
	return &SyncError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
	}
}

// ErrConfigMissing returns an error for missing configuration.
func ErrConfigMissing(field string) *SyncError {
	return &SyncError{
		Code: CodeConfigMissing,
		What: fmt.Sprintf("missing required configuration: %s", field),
		Why:  "this field is required but not set in config or environment",
	}
}

// AsSyncError attempts to convert an error to a SyncError.
// Returns nil if the error is not a SyncError.
func AsSyncError(err error) *SyncError {
	var syncErr *SyncError
	if stderrors.As(err, &syncErr) {
		return syncErr
	}
	return nil
}

// CategoryOf returns the category of err, or CategoryUnknown for plain errors.
func CategoryOf(err error) Category {
	if se := AsSyncError(err); se != nil {
		return se.Category()
	}
	return CategoryUnknown
}

// Wrap wraps a generic error into a SyncError with unknown code.
func Wrap(err error, what string) *SyncError {
	return &SyncError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
