package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/mheg/internal/ir"
)

// RuntimeError represents a recoverable error detected while executing
// content.
//
// Runtime errors are logged and abort only the current action; the engine
// keeps running. They never indicate an engine bug.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Object identifies the affected object or group, when known.
	Object string

	// Action names the elementary action being executed, when known.
	Action string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeReferenceNotFound indicates a reference names no registered object.
	ErrCodeReferenceNotFound RuntimeErrorCode = "REFERENCE_NOT_FOUND"

	// ErrCodeTypeMismatch indicates an object or value of the wrong class.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeContentUnavailable indicates carousel content could not be loaded.
	ErrCodeContentUnavailable RuntimeErrorCode = "CONTENT_UNAVAILABLE"

	// ErrCodeUnknownAction indicates an elementary action with no handler.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeInvalidGroup indicates a group description that cannot be loaded.
	ErrCodeInvalidGroup RuntimeErrorCode = "INVALID_GROUP"

	// ErrCodeInvalidArgument indicates a missing or malformed action parameter.
	ErrCodeInvalidArgument RuntimeErrorCode = "INVALID_ARGUMENT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch {
	case e.Object != "" && e.Action != "":
		return fmt.Sprintf("%s: %s (object=%s, action=%s)", e.Code, e.Message, e.Object, e.Action)
	case e.Object != "":
		return fmt.Sprintf("%s: %s (object=%s)", e.Code, e.Message, e.Object)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsReferenceNotFound returns true if err is a reference resolution failure.
// Uses errors.As to handle wrapped errors.
func IsReferenceNotFound(err error) bool {
	return hasCode(err, ErrCodeReferenceNotFound)
}

// IsTypeMismatch returns true if err is a type mismatch.
func IsTypeMismatch(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsContentUnavailable returns true if err reports missing carousel content.
func IsContentUnavailable(err error) bool {
	return hasCode(err, ErrCodeContentUnavailable)
}

// IsUnknownAction returns true if err names an action without a handler.
func IsUnknownAction(err error) bool {
	return hasCode(err, ErrCodeUnknownAction)
}

// IsInvalidArgument returns true if err reports a missing or malformed
// action parameter.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// NewReferenceNotFound creates a RuntimeError for an unresolvable reference.
func NewReferenceNotFound(id ir.ObjectID) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeReferenceNotFound,
		Message: "no object registered under reference",
		Object:  id.String(),
	}
}

// NewTypeMismatch creates a RuntimeError for an object or value of the
// wrong kind.
func NewTypeMismatch(id ir.ObjectID, want, got string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("expected %s, got %s", want, got),
		Object:  id.String(),
	}
}

// NewContentUnavailable creates a RuntimeError for missing content.
func NewContentUnavailable(name string, cause error) *RuntimeError {
	msg := "content not found"
	if cause != nil {
		msg = cause.Error()
	}
	return &RuntimeError{
		Code:    ErrCodeContentUnavailable,
		Message: msg,
		Object:  name,
	}
}

// ErrNoBootObject is returned when the boot search finds nothing to launch.
var ErrNoBootObject = errors.New("no boot object found")

// ProtocolViolation reports a broken engine invariant.
//
// A violation means the decoder or the engine itself is wrong, never the
// broadcast content. It is raised with panic and must not be recovered
// into normal operation.
type ProtocolViolation struct {
	Message string
}

func (p *ProtocolViolation) Error() string {
	return "protocol violation: " + p.Message
}

// violation logs and panics with a *ProtocolViolation.
func violation(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Error("protocol violation", "message", msg)
	panic(&ProtocolViolation{Message: msg})
}
