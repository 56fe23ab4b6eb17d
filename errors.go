package carpet

import "fmt"

// SchemaError reports a failure to construct a schema tree from a Go
// type: CyclicType, OpenGeneric, ConsecutiveLists, DecimalOutOfRange,
// or UnsupportedLogicalType, per spec.md §7.1. It follows the teacher's
// invalidConfiguration error style in config.go: a typed error with a
// Reason tag, returned rather than panicked, so BuildSchema failures
// are ordinary Go errors.
type SchemaError struct {
	Reason string // one of CyclicType, OpenGeneric, ConsecutiveLists, DecimalOutOfRange, UnsupportedLogicalType
	Type   string // the offending Go type name
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("carpet: %s: %s: %s", e.Reason, e.Type, e.Detail)
	}
	return fmt.Sprintf("carpet: %s: %s", e.Reason, e.Detail)
}

// ShredError reports a failure while shredding a record into column
// triples: RequiredFieldNull, InvalidRecord, InvalidRescaling,
// InvalidPrecision, or UnsupportedValue, per spec.md §7.2.
type ShredError struct {
	Reason string
	Path   ColumnPath
	Detail string
}

func (e *ShredError) Error() string {
	return fmt.Sprintf("carpet: %s at %s: %s", e.Reason, e.Path, e.Detail)
}

// AssembleError reports a failure while assembling a record from
// column triples: MissingColumn, NullIntoPrimitive, NarrowingConversion,
// or ValueOutOfRange, per spec.md §7.3.
type AssembleError struct {
	Reason string
	Path   ColumnPath
	Detail string
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("carpet: %s at %s: %s", e.Reason, e.Path, e.Detail)
}

// ConversionError reports a failure in the conversion policy (convert.go):
// a rejected widening/narrowing, an UNNECESSARY-mode decimal rescale
// that would lose precision, or an incompatible STRING/ENUM/SET/LIST
// interop. Grounded on the teacher's ConvertError in convert.go, which
// carries the same "Reason plus offending path" shape.
type ConversionError struct {
	Reason string
	Path   ColumnPath
	Detail string
}

func (e *ConversionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("carpet: conversion %s at %s: %s", e.Reason, e.Path, e.Detail)
	}
	return fmt.Sprintf("carpet: conversion %s: %s", e.Reason, e.Detail)
}

// Sentinel constructors, mirroring the teacher's errFoo-style helpers
// (e.g. errRowHasTooFewValues in row.go) rather than package-level
// error values, since every one of these needs a dynamic path/detail.

func errRequiredFieldNull(path ColumnPath) error {
	return &ShredError{Reason: "RequiredFieldNull", Path: path, Detail: "required field received a null value"}
}

func errInvalidMapKey(path ColumnPath) error {
	return &ShredError{Reason: "InvalidRecord", Path: path, Detail: "map key must not be null"}
}

func errMissingColumn(path ColumnPath) error {
	return &AssembleError{Reason: "MissingColumn", Path: path, Detail: "strict mode requires every schema column to be present"}
}

func errNullIntoPrimitive(path ColumnPath) error {
	return &AssembleError{Reason: "NullIntoPrimitive", Path: path, Detail: "null definition level mapped onto a non-nullable Go field"}
}
