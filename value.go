package carpet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unsafe"

	"github.com/google/uuid"
)

// Value is a single shredded leaf value together with the repetition and
// definition levels that place it within its column, per the R/D level
// model described in the GLOSSARY.
//
// Value is small and immutable, and is usually passed by value between
// the shredder, the external ColumnWriter, the ColumnReader, and the
// assembler.
//
// The zero-value of Value represents the null value.
type Value struct {
	ptr *byte
	u64 uint64
	u32 uint32

	kind int16 // XOR(Kind)+1 so the zero-value means "null"

	repetitionLevel int8
	definitionLevel int8
}

// IsNull returns true if v is the null value.
func (v Value) IsNull() bool { return v.kind == 0 }

// Kind returns the physical kind of v. Calling Kind on a null value
// panics; callers must check IsNull first.
func (v Value) Kind() Kind {
	if v.kind == 0 {
		panic("carpet: Kind called on a null value")
	}
	return Kind(^v.kind - 1)
}

// RepetitionLevel returns the repetition level of v.
func (v Value) RepetitionLevel() int8 { return v.repetitionLevel }

// DefinitionLevel returns the definition level of v.
func (v Value) DefinitionLevel() int8 { return v.definitionLevel }

// WithLevels returns a copy of v carrying the given repetition and
// definition levels.
func (v Value) WithLevels(repetitionLevel, definitionLevel int8) Value {
	if repetitionLevel < 0 || definitionLevel < 0 {
		panic("carpet: levels must not be negative")
	}
	v.repetitionLevel = repetitionLevel
	v.definitionLevel = definitionLevel
	return v
}

func kindTag(k Kind) int16 { return ^int16(k + 1) }

// NullValue constructs the null value at the given levels.
func NullValue(repetitionLevel, definitionLevel int8) Value {
	return Value{repetitionLevel: repetitionLevel, definitionLevel: definitionLevel}
}

func BooleanValue(value bool) Value {
	v := Value{kind: kindTag(Boolean)}
	if value {
		v.u32 = 1
	}
	return v
}

func Int32Value(value int32) Value {
	return Value{kind: kindTag(Int32), u32: uint32(value)}
}

func Int64Value(value int64) Value {
	return Value{kind: kindTag(Int64), u64: uint64(value)}
}

func Float32Value(value float32) Value {
	return Value{kind: kindTag(Float32), u32: math.Float32bits(value)}
}

func Float64Value(value float64) Value {
	return Value{kind: kindTag(Float64), u64: math.Float64bits(value)}
}

func ByteArrayValue(value []byte) Value {
	return makeByteArrayValue(ByteArray, value)
}

func FixedLenByteArrayValue(value []byte) Value {
	return makeByteArrayValue(FixedLenByteArray, value)
}

func UUIDValue(id uuid.UUID) Value {
	b := id // copy, addressable
	return makeByteArrayValue(FixedLenByteArray, b[:])
}

func makeByteArrayValue(k Kind, value []byte) Value {
	if value == nil {
		return Value{kind: kindTag(k)}
	}
	return Value{
		kind: kindTag(k),
		ptr:  unsafe.SliceData(value),
		u64:  uint64(len(value)),
	}
}

func (v Value) Boolean() bool { return v.u32 != 0 }
func (v Value) Int32() int32  { return int32(v.u32) }
func (v Value) Int64() int64  { return int64(v.u64) }

func (v Value) Float32() float32 { return math.Float32frombits(v.u32) }
func (v Value) Float64() float64 { return math.Float64frombits(v.u64) }

// ByteArray returns the underlying bytes of v. It panics if v does not
// hold a ByteArray or FixedLenByteArray kind.
func (v Value) ByteArray() []byte {
	if v.ptr == nil {
		if v.u64 == 0 {
			return nil
		}
		return []byte{}
	}
	return unsafe.Slice(v.ptr, int(v.u64))
}

// UUID interprets v as a 16-byte FIXED_LEN_BYTE_ARRAY UUID.
func (v Value) UUID() (uuid.UUID, error) {
	b := v.ByteArray()
	if len(b) != 16 {
		return uuid.UUID{}, fmt.Errorf("carpet: invalid UUID length %d", len(b))
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// Bytes returns the canonical binary representation of v, nil for null.
func (v Value) Bytes() []byte { return v.AppendBytes(nil) }

func (v Value) AppendBytes(b []byte) []byte {
	var buf [8]byte
	switch {
	case v.IsNull():
		return b
	case v.Kind() == Boolean:
		if v.Boolean() {
			return append(b, 1)
		}
		return append(b, 0)
	case v.Kind() == Int32 || v.Kind() == Float32:
		binary.LittleEndian.PutUint32(buf[:4], v.u32)
		return append(b, buf[:4]...)
	case v.Kind() == Int64 || v.Kind() == Float64:
		binary.LittleEndian.PutUint64(buf[:8], v.u64)
		return append(b, buf[:8]...)
	default:
		return append(b, v.ByteArray()...)
	}
}

// Equal reports whether v1 and v2 hold the same physical kind and value.
func Equal(v1, v2 Value) bool {
	if v1.IsNull() || v2.IsNull() {
		return v1.IsNull() == v2.IsNull()
	}
	if v1.Kind() != v2.Kind() {
		return false
	}
	switch v1.Kind() {
	case Boolean:
		return v1.Boolean() == v2.Boolean()
	case Int32:
		return v1.Int32() == v2.Int32()
	case Int64:
		return v1.Int64() == v2.Int64()
	case Float32:
		return v1.Float32() == v2.Float32()
	case Float64:
		return v1.Float64() == v2.Float64()
	default:
		return bytes.Equal(v1.ByteArray(), v2.ByteArray())
	}
}

// Format implements fmt.Formatter the same way the teacher's Value type
// does, to make (value, R, D) triples readable in test failures and
// trace output.
//
//	%d	definition level
//	%+d	definition level, prefixed with "D:"
//	%r	repetition level
//	%+r	repetition level, prefixed with "R:"
//	%s,%v	value
//	%+s,%+v	value, prefixed with "V:"
func (v Value) Format(w fmt.State, r rune) {
	switch r {
	case 'd':
		if w.Flag('+') {
			io.WriteString(w, "D:")
		}
		fmt.Fprint(w, v.definitionLevel)
	case 'r':
		if w.Flag('+') {
			io.WriteString(w, "R:")
		}
		fmt.Fprint(w, v.repetitionLevel)
	case 's', 'v':
		if w.Flag('+') {
			io.WriteString(w, "V:")
		}
		switch {
		case v.IsNull():
			io.WriteString(w, "<null>")
		case v.Kind() == Boolean:
			fmt.Fprint(w, v.Boolean())
		case v.Kind() == Int32:
			fmt.Fprint(w, v.Int32())
		case v.Kind() == Int64:
			fmt.Fprint(w, v.Int64())
		case v.Kind() == Float32:
			fmt.Fprint(w, v.Float32())
		case v.Kind() == Float64:
			fmt.Fprint(w, v.Float64())
		default:
			fmt.Fprintf(w, "%q", v.ByteArray())
		}
	}
}

func (v Value) String() string { return fmt.Sprintf("%s", v) }

var (
	_ fmt.Formatter = Value{}
	_ fmt.Stringer  = Value{}
)
