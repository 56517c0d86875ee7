package waspweb

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrScriptNotFound indicates a script was not found
	ErrScriptNotFound = errors.New("script not found")

	// ErrProfileNotFound indicates a profile was not found
	ErrProfileNotFound = errors.New("profile not found")

	// ErrDeveloperNotFound indicates a developer was not found
	ErrDeveloperNotFound = errors.New("developer not found")

	// ErrPackageNotFound indicates a package was not found
	ErrPackageNotFound = errors.New("package not found")

	// ErrTutorialNotFound indicates a tutorial was not found
	ErrTutorialNotFound = errors.New("tutorial not found")

	// ErrObjectNotFound indicates a blob was not found in its bucket
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound indicates no blob store is registered for a bucket
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAdminUnavailable is returned by admin profile operations when the
	// service account could not be logged in.
	ErrAdminUnavailable = errors.New("admin session unavailable")

	// ErrNoSession indicates the auth client holds no active session
	ErrNoSession = errors.New("no active session")
)

// FailureKind classifies a Failure.
type FailureKind string

const (
	KindValidation FailureKind = "validation"
	KindUpstream   FailureKind = "upstream"
	KindNotFound   FailureKind = "notFound"
	KindForbidden  FailureKind = "forbidden"
)

// Failure is the error returned by workflow and page operations. Message is
// safe to show to the user; Err keeps the underlying cause.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	switch {
	case f.Message != "":
		return string(f.Kind) + ": " + f.Message
	case f.Err != nil:
		return string(f.Kind) + ": " + f.Err.Error()
	default:
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Status maps the failure kind to an HTTP status code.
func (f *Failure) Status() int {
	switch f.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message to display, falling back to the cause.
func (f *Failure) UserMessage() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return http.StatusText(f.Status())
}

// Validation builds a validation failure.
func Validation(message string) *Failure {
	return &Failure{Kind: KindValidation, Message: message}
}

// Upstream wraps an error from the database, storage or auth service.
func Upstream(message string, err error) *Failure {
	return &Failure{Kind: KindUpstream, Message: message, Err: err}
}

// NotFound builds a not-found failure.
func NotFound(message string, err error) *Failure {
	return &Failure{Kind: KindNotFound, Message: message, Err: err}
}

// Forbidden builds a forbidden failure.
func Forbidden(err error) *Failure {
	return &Failure{Kind: KindForbidden, Err: err}
}

// AsFailure reports whether err is a *Failure and returns it.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ScriptError represents an error related to script operations
type ScriptError struct {
	ScriptID uuid.UUID
	Op       string
	Err      error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script operation %s failed for script %s: %v", e.Op, e.ScriptID, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
