package carpet

import (
	"fmt"
	"math/big"
)

// Conversion carries the two knobs spec.md §4.F makes explicit: whether
// narrowing conversions are permitted, and which rounding mode governs
// a DECIMAL rescale performed as part of a conversion. It generalizes
// the teacher's schema-to-schema Convert(to, from Node) (Conversion,
// error)/convertFuncOf* family in convert.go from "row of one parquet
// schema into row of another" down to the single-value case carpet
// needs: assembling already drives the recursive walk (assemble.go),
// so only the leaf policy itself is reusable here.
type Conversion struct {
	AllowNarrowing bool
	Rounding       RoundingMode
}

// DefaultConversion disallows narrowing, matching spec.md §4.F's
// "narrowing allowed only when explicitly requested".
func DefaultConversion() Conversion {
	return Conversion{Rounding: RoundUnnecessary}
}

// ConvertValue converts v, whose physical kind was produced for the
// `from` logical type, into the value appropriate for `to`. Both types
// must already agree on shape (this is a leaf-to-leaf value
// conversion, not a schema conversion); Optional/Repeated/Group-level
// compatibility is the caller's concern, handled the way the teacher's
// convertFuncOfOptional/convertFuncOfRepeated/convertFuncOfGroup
// recurse around this leaf case.
func (c Conversion) ConvertValue(v Value, from, to LogicalType) (Value, error) {
	if v.IsNull() {
		return v, nil
	}
	if sameLogicalType(from, to) {
		return v, nil
	}

	switch toType := to.(type) {
	case intType:
		return c.convertToInt(v, from, toType)
	case floatType:
		return c.convertToFloat(v, from, toType)
	case binaryStringType:
		return c.convertToString(v, from, toType)
	case bytesType:
		return c.convertToBytes(v, from)
	case decimalType:
		return c.convertToDecimal(v, from, toType)
	default:
		if from.Kind() == to.Kind() {
			return v, nil
		}
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	}
}

func sameLogicalType(from, to LogicalType) bool {
	return from.String() == to.String()
}

func conversionError(reason string, from, to LogicalType) *ConversionError {
	return &ConversionError{
		Reason: reason,
		Detail: fmt.Sprintf("cannot convert %s to %s", from.String(), to.String()),
	}
}

func intBitWidth(t LogicalType) (int, bool) {
	it, ok := t.(intType)
	if !ok {
		return 0, false
	}
	return it.bitWidth, true
}

// convertToInt implements "primitive widening is allowed by default;
// narrowing only when requested" for the integer family: INT8 < INT16
// < INT32 < INT64 (spec.md §4.F, first bullet).
func (c Conversion) convertToInt(v Value, from LogicalType, to intType) (Value, error) {
	fromWidth, ok := intBitWidth(from)
	if !ok {
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	}
	var n int64
	if from.Kind() == Int64 {
		n = v.Int64()
	} else {
		n = int64(v.Int32())
	}
	if to.bitWidth < fromWidth {
		if !c.AllowNarrowing {
			return Value{}, conversionError("NarrowingConversion", from, to)
		}
		if !fitsIntWidth(n, to.bitWidth) {
			return Value{}, conversionError("ValueOutOfRange", from, to)
		}
	}
	if to.kind == Int64 {
		return Int64Value(n), nil
	}
	return Int32Value(int32(n)), nil
}

func fitsIntWidth(n int64, bitWidth int) bool {
	if bitWidth >= 64 {
		return true
	}
	max := int64(1)<<(bitWidth-1) - 1
	min := -(int64(1) << (bitWidth - 1))
	return n >= min && n <= max
}

// convertToFloat implements FLOAT32<->FLOAT64 widening/narrowing.
func (c Conversion) convertToFloat(v Value, from LogicalType, to floatType) (Value, error) {
	ft, ok := from.(floatType)
	if !ok {
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	}
	var f float64
	if ft.bitWidth == 64 {
		f = v.Float64()
	} else {
		f = float64(v.Float32())
	}
	if to.bitWidth < ft.bitWidth && !c.AllowNarrowing {
		return Value{}, conversionError("NarrowingConversion", from, to)
	}
	if to.bitWidth == 64 {
		return Float64Value(f), nil
	}
	return Float32Value(float32(f)), nil
}

// convertToString implements "STRING <-> ENUM is bidirectional by
// name" and "BINARY -> STRING requires the column's logical tag to be
// STRING/ENUM/JSON" (spec.md §4.F, second/third bullets): the
// underlying bytes never change, only the logical tag does, so this
// is a pure compatibility check.
func (c Conversion) convertToString(v Value, from LogicalType, to binaryStringType) (Value, error) {
	switch ft := from.(type) {
	case binaryStringType:
		switch to.variant {
		case variantString, variantEnum:
			if ft.variant == variantString || ft.variant == variantEnum {
				return v, nil
			}
		}
		if ft.variant == to.variant {
			return v, nil
		}
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	default:
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	}
}

// convertToBytes allows any binary-backed logical type to widen into
// raw BYTES (opaque binary never loses information).
func (c Conversion) convertToBytes(v Value, from LogicalType) (Value, error) {
	if from.Kind() != ByteArray && from.Kind() != FixedLenByteArray {
		return Value{}, conversionError("IncompatibleLogicalType", from, BYTES)
	}
	return ByteArrayValue(v.ByteArray()), nil
}

// convertToDecimal implements "DECIMAL values round-trip exactly when
// target scale >= source scale; otherwise subject to the same
// rescale/rounding rules as on write" (spec.md §4.F, fourth bullet).
func (c Conversion) convertToDecimal(v Value, from LogicalType, to decimalType) (Value, error) {
	ft, ok := from.(decimalType)
	if !ok {
		return Value{}, conversionError("IncompatibleLogicalType", from, to)
	}
	var unscaled *big.Int
	switch ft.Kind() {
	case Int32:
		unscaled = big.NewInt(int64(v.Int32()))
	case Int64:
		unscaled = big.NewInt(v.Int64())
	default:
		unscaled = new(big.Int).SetBytes(v.ByteArray())
	}
	d := Decimal{Unscaled: unscaled, Scale: ft.scale}

	rounding := c.Rounding
	if to.scale >= ft.scale {
		rounding = RoundUnnecessary // exact widening never needs rounding
	}
	rescaled, err := Rescale(d, to.scale, rounding)
	if err != nil {
		return Value{}, &ConversionError{Reason: "InvalidRescaling", Detail: err.Error()}
	}
	if !FitsPrecision(rescaled, to.precision) {
		return Value{}, conversionError("ValueOutOfRange", from, to)
	}
	switch to.Kind() {
	case Int32:
		return Int32Value(int32(rescaled.Unscaled.Int64())), nil
	case Int64:
		return Int64Value(rescaled.Unscaled.Int64()), nil
	default:
		return FixedLenByteArrayValue(rescaled.Unscaled.Bytes()), nil
	}
}

// ConvertSet reports whether element values read from a LIST column
// may populate a SET-typed target (spec.md Invariant 5 / §4.F's
// "SET<->LIST interop"): true exactly when both element types are the
// same logical type, since SET is shredded byte-for-byte as LIST; the
// Assembler, not this policy function, handles deduplication.
func ConvertSet(elementFrom, elementTo LogicalType) bool {
	return sameLogicalType(elementFrom, elementTo)
}
