package openapi

import (
	"errors"

	"github.com/erraggy/oastools/oaserrors"
)

var (
	// ErrUnsupportedReference matches any UnsupportedReferenceError.
	ErrUnsupportedReference = errors.New("unsupported reference")

	// ErrReferenceNotFound matches any ReferenceNotFoundError.
	ErrReferenceNotFound = errors.New("reference not found")
)

// UnsupportedReferenceError is returned for a $ref that is not an internal
// "#/components/..." pointer, or that is not a well-formed JSON pointer.
type UnsupportedReferenceError struct {
	// Ref is the pointer as written in the document
	Ref string
	// Message describes why the pointer was rejected
	Message string
	// Cause is the underlying error, if any
	Cause error
}

func (e *UnsupportedReferenceError) Error() string {
	msg := "unsupported reference " + quote(e.Ref)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnsupportedReferenceError) Unwrap() error { return e.Cause }

// Is matches ErrUnsupportedReference and oaserrors.ErrReference.
func (e *UnsupportedReferenceError) Is(target error) bool {
	return target == ErrUnsupportedReference || target == oaserrors.ErrReference
}

// ReferenceNotFoundError is returned when a segment of an internal pointer
// does not exist in the document.
type ReferenceNotFoundError struct {
	// Ref is the pointer as written in the document
	Ref string
	// Segment is the path below "#/components/" up to and including the
	// first segment that could not be found, e.g. "schemas/Missing".
	Segment string
	// Message is set when the path exists but its target is unusable
	Message string
}

func (e *ReferenceNotFoundError) Error() string {
	msg := "reference " + quote(e.Ref) + " not found: missing " + quote(e.Segment)
	if e.Message != "" {
		msg = "reference " + quote(e.Ref) + ": " + quote(e.Segment) + " " + e.Message
	}
	return msg
}

// Is matches ErrReferenceNotFound and oaserrors.ErrReference.
func (e *ReferenceNotFoundError) Is(target error) bool {
	return target == ErrReferenceNotFound || target == oaserrors.ErrReference
}

func quote(s string) string {
	return "\"" + s + "\""
}
