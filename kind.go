package carpet

// Kind enumerates the physical storage types of the Parquet type system.
// It is the backing representation that every LogicalType maps onto.
type Kind int8

const (
	Boolean Kind = iota
	Int32
	Int64
	Float32
	Float64
	ByteArray
	FixedLenByteArray
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "BOOLEAN"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float32:
		return "FLOAT"
	case Float64:
		return "DOUBLE"
	case ByteArray:
		return "BYTE_ARRAY"
	case FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}
