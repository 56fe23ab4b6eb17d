package carpet

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// LogicalType is the semantic tag carried by a leaf Node: it names the
// physical Kind that backs it plus whatever extra facts (decimal
// precision/scale, time unit, UUID length, …) distinguish it from other
// logical types sharing that Kind. It plays the role of the teacher's
// Type interface, narrowed to the concerns a leaf logical type needs
// once page encoding, dictionaries, and column indexing are removed.
type LogicalType interface {
	// Kind returns the physical storage kind this logical type is
	// backed by.
	Kind() Kind

	// Length returns the fixed byte length for FixedLenByteArray-backed
	// types (e.g. 16 for UUID), or 0 when the type has no fixed length.
	Length() int

	// GoType returns the reflect.Type this logical type is derived
	// from/materialized into on the reflective path.
	GoType() reflect.Type

	// String names the logical type the way it is rendered in schema
	// pretty-printing, e.g. "DECIMAL(20,2)", "TIMESTAMP(millis,true)".
	String() string
}

// ---- primitives -----------------------------------------------------

type booleanType struct{}

func (booleanType) Kind() Kind           { return Boolean }
func (booleanType) Length() int          { return 0 }
func (booleanType) GoType() reflect.Type { return reflect.TypeOf(false) }
func (booleanType) String() string       { return "BOOLEAN" }

// BOOLEAN is the logical type of Go bool fields.
var BOOLEAN LogicalType = booleanType{}

type intType struct {
	bitWidth int
	kind     Kind
}

func (t intType) Kind() Kind           { return t.kind }
func (t intType) Length() int          { return 0 }
func (t intType) GoType() reflect.Type { return intGoTypes[t.bitWidth] }
func (t intType) String() string       { return fmt.Sprintf("INT%d", t.bitWidth) }

var intGoTypes = map[int]reflect.Type{
	8:  reflect.TypeOf(int8(0)),
	16: reflect.TypeOf(int16(0)),
	32: reflect.TypeOf(int32(0)),
	64: reflect.TypeOf(int64(0)),
}

var (
	INT8  LogicalType = intType{bitWidth: 8, kind: Int32}
	INT16 LogicalType = intType{bitWidth: 16, kind: Int32}
	INT32 LogicalType = intType{bitWidth: 32, kind: Int32}
	INT64 LogicalType = intType{bitWidth: 64, kind: Int64}
)

type floatType struct {
	bitWidth int
	kind     Kind
}

func (t floatType) Kind() Kind  { return t.kind }
func (t floatType) Length() int { return 0 }
func (t floatType) GoType() reflect.Type {
	if t.bitWidth == 32 {
		return reflect.TypeOf(float32(0))
	}
	return reflect.TypeOf(float64(0))
}
func (t floatType) String() string { return fmt.Sprintf("FLOAT%d", t.bitWidth) }

var (
	FLOAT32 LogicalType = floatType{bitWidth: 32, kind: Float32}
	FLOAT64 LogicalType = floatType{bitWidth: 64, kind: Float64}
)

// ---- binary-backed ----------------------------------------------------

// stringVariant distinguishes the sub-logical tags layered over a plain
// binary/string column (STRING, ENUM, JSON, BSON), mirroring the
// teacher's stringType/enumType/jsonType family of distinct structs in
// type.go, collapsed here into one parameterized struct since they
// share every method except String().
type stringVariant int8

const (
	variantString stringVariant = iota
	variantEnum
	variantJSON
	variantBSON
)

type binaryStringType struct{ variant stringVariant }

func (binaryStringType) Kind() Kind           { return ByteArray }
func (binaryStringType) Length() int          { return 0 }
func (binaryStringType) GoType() reflect.Type { return reflect.TypeOf("") }

func (t binaryStringType) String() string {
	switch t.variant {
	case variantEnum:
		return "ENUM"
	case variantJSON:
		return "JSON"
	case variantBSON:
		return "BSON"
	default:
		return "STRING"
	}
}

var (
	STRING LogicalType = binaryStringType{variant: variantString}
	ENUM   LogicalType = binaryStringType{variant: variantEnum}
	JSON   LogicalType = binaryStringType{variant: variantJSON}
	BSON   LogicalType = binaryStringType{variant: variantBSON}
)

type bytesType struct{}

func (bytesType) Kind() Kind           { return ByteArray }
func (bytesType) Length() int          { return 0 }
func (bytesType) GoType() reflect.Type { return reflect.TypeOf([]byte(nil)) }
func (bytesType) String() string       { return "BYTES" }

// BYTES is the logical type of opaque []byte fields.
var BYTES LogicalType = bytesType{}

type uuidType struct{}

func (uuidType) Kind() Kind           { return FixedLenByteArray }
func (uuidType) Length() int          { return 16 }
func (uuidType) GoType() reflect.Type { return reflect.TypeOf(uuid.UUID{}) }
func (uuidType) String() string       { return "UUID" }

// UUID is the logical type of a 16-byte fixed-length UUID value,
// grounded on the teacher's uuidType in type.go.
var UUID LogicalType = uuidType{}

// geoType covers GEOMETRY and GEOGRAPHY, which differ only in their
// name and (for GEOGRAPHY) the presence of an edge-interpolation
// algorithm alongside the CRS.
type geoType struct {
	geography bool
	crs       string
	edges     string // only meaningful when geography is true
}

func (geoType) Kind() Kind           { return ByteArray }
func (geoType) Length() int          { return 0 }
func (geoType) GoType() reflect.Type { return reflect.TypeOf([]byte(nil)) }

func (t geoType) String() string {
	if t.geography {
		if t.edges != "" {
			return fmt.Sprintf("GEOGRAPHY(%s,%s)", t.crs, t.edges)
		}
		return fmt.Sprintf("GEOGRAPHY(%s)", t.crs)
	}
	if t.crs != "" {
		return fmt.Sprintf("GEOMETRY(%s)", t.crs)
	}
	return "GEOMETRY"
}

// GEOMETRY constructs a GEOMETRY logical type with the given CRS
// (empty string for the default).
func GEOMETRY(crs string) LogicalType { return geoType{crs: crs} }

// GEOGRAPHY constructs a GEOGRAPHY logical type with the given CRS and
// edge-interpolation algorithm (empty strings for the defaults).
func GEOGRAPHY(crs, edges string) LogicalType { return geoType{geography: true, crs: crs, edges: edges} }

// variantType models VARIANT as sugar over a two-child GROUP holding
// opaque value/metadata binary columns, analogous to how the teacher
// models MAP as a synthetic key_value group in type.go's mapNode.
type variantType struct{}

func (variantType) Kind() Kind           { return ByteArray }
func (variantType) Length() int          { return 0 }
func (variantType) GoType() reflect.Type { return reflect.TypeOf([]byte(nil)) }
func (variantType) String() string       { return "VARIANT" }

// VARIANT is the logical type of a self-describing (value, metadata)
// binary pair.
var VARIANT LogicalType = variantType{}

// VariantGroup returns the GROUP node shape backing a VARIANT field:
// two required binary leaves, "value" and "metadata".
func VariantGroup() Node {
	return NewGroup(
		[]string{"value", "metadata"},
		map[string]Node{
			"value":    Leaf(BYTES),
			"metadata": Leaf(BYTES),
		},
	)
}

// ---- decimal ------------------------------------------------------

type decimalType struct {
	precision int
	scale     int
}

func (t decimalType) Kind() Kind {
	switch {
	case t.precision <= 9:
		return Int32
	case t.precision <= 18:
		return Int64
	default:
		return FixedLenByteArray
	}
}

// Length returns the minimum number of bytes needed to represent
// precision digits in two's-complement, for precision > 18; 0 otherwise
// (INT32/INT64-backed decimals have no separate fixed length).
func (t decimalType) Length() int {
	if t.precision <= 18 {
		return 0
	}
	return decimalByteWidth(t.precision)
}

func (decimalType) GoType() reflect.Type { return reflect.TypeOf((*Decimal)(nil)).Elem() }

func (t decimalType) String() string { return fmt.Sprintf("DECIMAL(%d,%d)", t.precision, t.scale) }

func (t decimalType) Precision() int { return t.precision }
func (t decimalType) Scale() int     { return t.scale }

// DECIMAL constructs a DECIMAL(precision, scale) logical type. It
// panics if precision/scale violate Invariant 4 (1 ≤ p ≤ 38, 0 ≤ s ≤
// p), matching the teacher's Decimal(scale, precision, typ) panic
// convention in type.go for programmer-error-class misuse.
func DECIMAL(precision, scale int) LogicalType {
	if precision < 1 || precision > 38 {
		panic(fmt.Sprintf("carpet: DECIMAL precision out of range [1,38]: %d", precision))
	}
	if scale < 0 || scale > precision {
		panic(fmt.Sprintf("carpet: DECIMAL scale out of range [0,%d]: %d", precision, scale))
	}
	return decimalType{precision: precision, scale: scale}
}

// decimalByteWidth returns the smallest number of bytes whose
// two's-complement range can hold every precision-digit decimal.
func decimalByteWidth(precision int) int {
	// 8.88 < 1/log10(2) precision bits slack for the sign, matching
	// typical Parquet reference-implementation decimal sizing tables.
	bits := float64(precision)*3.32193 + 1
	n := int(bits)/8 + 1
	if n < 1 {
		n = 1
	}
	return n
}

// ---- temporal -------------------------------------------------------

type dateType struct{}

func (dateType) Kind() Kind           { return Int32 }
func (dateType) Length() int          { return 0 }
func (dateType) GoType() reflect.Type { return reflect.TypeOf(int32(0)) }
func (dateType) String() string       { return "DATE" }

// DATE is the logical type of a day-resolution calendar date, stored as
// days since the Unix epoch in an INT32.
var DATE LogicalType = dateType{}

type timeType struct {
	unit        TimeUnit
	adjustedUTC bool
}

func (t timeType) Kind() Kind {
	if t.unit == Nanosecond {
		return Int64
	}
	return Int32
}
func (timeType) Length() int          { return 0 }
func (timeType) GoType() reflect.Type { return reflect.TypeOf(int64(0)) }
func (t timeType) String() string {
	return fmt.Sprintf("TIME(%s,%t)", t.unit, t.adjustedUTC)
}

// TIME constructs a TIME(unit, isAdjustedToUTC) logical type for a
// time-of-day value.
func TIME(unit TimeUnit, isAdjustedToUTC bool) LogicalType {
	return timeType{unit: unit, adjustedUTC: isAdjustedToUTC}
}

type timestampType struct {
	unit        TimeUnit
	adjustedUTC bool
}

func (timestampType) Kind() Kind           { return Int64 }
func (timestampType) Length() int          { return 0 }
func (timestampType) GoType() reflect.Type { return reflect.TypeOf(time.Time{}) }
func (t timestampType) String() string {
	return fmt.Sprintf("TIMESTAMP(%s,%t)", t.unit, t.adjustedUTC)
}

// TIMESTAMP constructs a TIMESTAMP(unit, isAdjustedToUTC) logical type.
// With isAdjustedToUTC, it maps from absolute-instant values
// (time.Time); without it, from local-datetime values (LocalDateTime).
func TIMESTAMP(unit TimeUnit, isAdjustedToUTC bool) LogicalType {
	return timestampType{unit: unit, adjustedUTC: isAdjustedToUTC}
}
