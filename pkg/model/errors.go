package model

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnknownDiagnostic = errors.New("unknown diagnostic")
	ErrTransform         = errors.New("transform failed")
	ErrBackendConversion = errors.New("backend conversion failed")
)

// ConfigurationError reports a bad catalog or pipeline construction.
// It is raised at construction and never mid-run.
type ConfigurationError struct {
	Component string // "catalog", "pipeline", "registry", ...
	Name      string // offending predicate / stage / domain name, if any
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s configuration: %s: %s", e.Component, e.Name, e.Reason)
	}
	return fmt.Sprintf("%s configuration: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownColumnError reports a reference to a column absent from the table
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("column %q not found in table", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

// UnknownDiagnosticError reports a diagnostic name not present in the bound catalog
type UnknownDiagnosticError struct {
	Name    string
	Catalog string
}

func (e *UnknownDiagnosticError) Error() string {
	return fmt.Sprintf("diagnostic %q not found in %s catalog", e.Name, e.Catalog)
}

func (e *UnknownDiagnosticError) Is(target error) bool {
	return target == ErrUnknownDiagnostic
}

// TransformError records a single cell whose transform failed.
// Stages absorb it; it never reaches the caller of a pipeline.
type TransformError struct {
	Stage  string
	Column string
	Value  Cell
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("stage %s, column %s, value %q: %v", e.Stage, e.Column, e.Value.Text(), e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}

// BackendConversionError reports a failed round-trip through the columnar backend.
// Row identity cannot be trusted afterwards, so it is always fatal.
type BackendConversionError struct {
	Backend string
	Column  string
	Err     error
}

func (e *BackendConversionError) Error() string {
	return fmt.Sprintf("%s backend conversion of column %q: %v", e.Backend, e.Column, e.Err)
}

func (e *BackendConversionError) Unwrap() error {
	return e.Err
}

func (e *BackendConversionError) Is(target error) bool {
	return target == ErrBackendConversion
}

// ErrorCategory groups errors by how they propagate
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryCellLevel errors are absorbed where they happen
	ErrorCategoryCellLevel
	// ErrorCategoryLookup errors reject a single request
	ErrorCategoryLookup
	// ErrorCategoryConfiguration errors fail construction
	ErrorCategoryConfiguration
	// ErrorCategoryBackend errors abort the whole run
	ErrorCategoryBackend
	ErrorCategoryUnknown
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryCellLevel:
		return "CellLevel"
	case ErrorCategoryLookup:
		return "Lookup"
	case ErrorCategoryConfiguration:
		return "Configuration"
	case ErrorCategoryBackend:
		return "Backend"
	case ErrorCategoryUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ec))
	}
}

// Categorize determines the category of an error
func Categorize(err error) ErrorCategory {
	switch {
	case err == nil:
		return ErrorCategoryNone
	case errors.Is(err, ErrBackendConversion):
		return ErrorCategoryBackend
	case errors.Is(err, ErrConfiguration):
		return ErrorCategoryConfiguration
	case errors.Is(err, ErrUnknownColumn), errors.Is(err, ErrUnknownDiagnostic):
		return ErrorCategoryLookup
	case errors.Is(err, ErrTransform):
		return ErrorCategoryCellLevel
	default:
		return ErrorCategoryUnknown
	}
}

// IsFatal reports whether err must abort a run rather than be absorbed
func IsFatal(err error) bool {
	category := Categorize(err)
	return category != ErrorCategoryNone && category != ErrorCategoryCellLevel
}
