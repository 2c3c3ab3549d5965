package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// Specific errors.
var (
	ErrTableNotFound  = fmt.Errorf("table: %w", ErrNotFound)
	ErrEmptyDocument  = fmt.Errorf("document has no features: %w", ErrInvalidInput)
	ErrNoLayers       = fmt.Errorf("no layers to export: %w", ErrInvalidInput)
	ErrReaderNotFound = fmt.Errorf("no reader for source format: %w", ErrNotFound)
)

// ParseError indicates a malformed source document or a duplicate point
// id. It identifies the offending element so the caller can surface it.
type ParseError struct {
	Element string // Element name, e.g. "CgPoint"
	ID      string // Offending id, if any
	Err     error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch {
	case e.ID != "" && e.Err != nil:
		return fmt.Sprintf("parse error in <%s> id %q: %v", e.Element, e.ID, e.Err)
	case e.ID != "":
		return fmt.Sprintf("parse error in <%s> id %q", e.Element, e.ID)
	case e.Err != nil:
		return fmt.Sprintf("parse error in <%s>: %v", e.Element, e.Err)
	default:
		return fmt.Sprintf("parse error in <%s>", e.Element)
	}
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ReferenceError indicates a breakline or face referencing a point id
// absent from the points collection, or a face with non-distinct ids.
type ReferenceError struct {
	Kind    string // Referencing element kind: "breakline" or "face"
	Owner   string // Name or id of the referencing element
	PointID string // The unresolved point id, empty for non-distinct ids
	Reason  string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	if e.PointID != "" {
		return fmt.Sprintf("%s %q references unknown point %q", e.Kind, e.Owner, e.PointID)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Owner, e.Reason)
}

// Unwrap returns the underlying error type.
func (e *ReferenceError) Unwrap() error {
	return ErrInvalidInput
}

// ExportError indicates a failure while creating or writing a container.
// The export engine guarantees no file is left at Path when it returns
// an ExportError.
type ExportError struct {
	Path  string // Target container path
	Layer string // Layer being written, if applicable
	Err   error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("export to %s failed on layer %q: %v", e.Path, e.Layer, e.Err)
	}
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error {
	return e.Err
}

// SchemaConflictError indicates a field that exists in both the target
// table and the incoming schema with incompatible types. The append is
// aborted entirely: no fields added, no rows written.
type SchemaConflictError struct {
	Table    string
	Field    string
	Existing FieldType
	Incoming FieldType
}

// Error implements the error interface.
func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("schema conflict on %s.%s: existing %s, incoming %s",
		e.Table, e.Field, e.Existing, e.Incoming)
}

// Unwrap returns the underlying error type.
func (e *SchemaConflictError) Unwrap() error {
	return ErrConflict
}
