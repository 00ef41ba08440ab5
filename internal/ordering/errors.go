package ordering

import (
	"fmt"

	"github.com/google/uuid"
)

// FieldErrors maps a field name to a human-readable message
type FieldErrors map[string]string

// ValidationError is returned before any write when input is rejected.
// Fields holds form-level errors, Rows holds errors per line item index.
type ValidationError struct {
	Message string
	Fields  FieldErrors
	Rows    map[int]FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientStockError is raised inside a commit when the locked stock
// is below the requested quantity
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.ProductName)
}

// NotFoundError is raised when a referenced product no longer exists
type NotFoundError struct {
	ProductID   uuid.UUID
	ProductName string
}

func (e *NotFoundError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("Product %s not found", name)
}

// TransportError wraps a failure of the underlying store
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
