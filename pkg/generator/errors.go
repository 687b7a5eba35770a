package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erraggy/oastools/oaserrors"
)

var (
	// ErrUnsupportedRequestBody matches any UnsupportedRequestBodySchemaError.
	ErrUnsupportedRequestBody = errors.New("unsupported request body schema")

	// ErrDuplicateOperationID matches any DuplicateOperationIdError.
	ErrDuplicateOperationID = errors.New("duplicate operationId")
)

// UnsupportedRequestBodySchemaError is returned when a request body is a
// $ref to components.requestBodies instead of an inline request body.
type UnsupportedRequestBodySchemaError struct {
	// Ref is the request body reference
	Ref string
}

func (e *UnsupportedRequestBodySchemaError) Error() string {
	return fmt.Sprintf("request body %q is a reference; only inline request bodies are supported", e.Ref)
}

// Is matches ErrUnsupportedRequestBody and oaserrors.ErrValidation.
func (e *UnsupportedRequestBodySchemaError) Is(target error) bool {
	return target == ErrUnsupportedRequestBody || target == oaserrors.ErrValidation
}

// DuplicateOperationIdError is returned in strict mode when two operations
// with the same operationId land in the same class.
type DuplicateOperationIdError struct {
	OperationID string
	Class       string
	// First is the "METHOD path" of the operation registered first
	First string
}

func (e *DuplicateOperationIdError) Error() string {
	return fmt.Sprintf("operationId %q is already used by %s in class %s", e.OperationID, e.First, e.Class)
}

// Is matches ErrDuplicateOperationID and oaserrors.ErrValidation.
func (e *DuplicateOperationIdError) Is(target error) bool {
	return target == ErrDuplicateOperationID || target == oaserrors.ErrValidation
}

// OperationError attaches the operation context to a fatal compile error.
type OperationError struct {
	Method      string
	Path        string
	OperationID string
	Err         error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteByte(' ')
	b.WriteString(e.Path)
	if e.OperationID != "" {
		b.WriteString(" (")
		b.WriteString(e.OperationID)
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OperationError) Unwrap() error { return e.Err }

func wrapOperation(op *operation, err error) error {
	if err == nil {
		return nil
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{Method: op.Method, Path: op.Path, OperationID: op.ID, Err: err}
}
