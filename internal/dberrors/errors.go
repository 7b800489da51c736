// Package dberrors defines the typed error taxonomy shared across every
// pipeline stage, plus the classification/action rules for load-time
// failures.
package dberrors

import (
	"errors"
	"fmt"
)

// Category is the coarse error family a failure belongs to. Every
// pipeline stage returns errors wrapped in one of these so cmd/ can pick
// the right process exit code.
type Category int

const (
	CategoryConfig Category = iota
	CategoryConnect
	CategorySchema
	CategoryMapping
	CategoryDDL
	CategoryLoad
	CategoryValidation
	CategoryCancelled
)

func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "config_error"
	case CategoryConnect:
		return "connect_error"
	case CategorySchema:
		return "schema_error"
	case CategoryMapping:
		return "mapping_error"
	case CategoryDDL:
		return "ddl_error"
	case CategoryLoad:
		return "load_error"
	case CategoryValidation:
		return "validation_failure"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code assigned to this category by
// the CLI surface (see cmd/root.go for how it's consumed).
func (c Category) ExitCode() int {
	switch c {
	case CategoryConfig:
		return 2
	case CategoryValidation:
		return 3
	case CategoryMapping, CategoryDDL, CategoryLoad:
		return 4
	case CategoryConnect, CategorySchema:
		return 5
	case CategoryCancelled:
		return 1
	default:
		return 1
	}
}

// LoadKind narrows CategoryLoad failures per spec, distinguishing
// causes that call for different DLQ handling.
type LoadKind int

const (
	LoadKindConstraintViolation LoadKind = iota
	LoadKindTypeConversion
	LoadKindEncoding
	LoadKindUnknown
)

func (k LoadKind) String() string {
	switch k {
	case LoadKindConstraintViolation:
		return "constraint_violation"
	case LoadKindTypeConversion:
		return "type_conversion"
	case LoadKindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is the wrapper every stage returns instead of a bare error, so
// callers can inspect Category without string matching.
type Error struct {
	Category Category
	Table    string
	LoadKind LoadKind
	Err      error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Category, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(cat Category, table string, err error) *Error {
	return &Error{Category: cat, Table: table, Err: err}
}

func NewLoad(table string, kind LoadKind, err error) *Error {
	return &Error{Category: CategoryLoad, Table: table, LoadKind: kind, Err: err}
}

// CategoryOf extracts the Category of err, or returns (0, false) if err
// doesn't wrap a *Error.
func CategoryOf(err error) (Category, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Category, true
	}
	return 0, false
}

// Fatal reports whether an error of this category should abort the
// entire run (as opposed to being recorded and the run continuing with
// remaining tables). Config, connect, and DDL failures are always fatal;
// schema/mapping/load failures are per-table and non-fatal at the run
// level; validation failures are reported but never abort a run in
// progress (there's nothing left to abort — validation runs last).
func (c Category) Fatal() bool {
	switch c {
	case CategoryConfig, CategoryConnect, CategoryDDL, CategoryCancelled:
		return true
	default:
		return false
	}
}
