package carpet

// TimeUnit is the resolution of a TIME or TIMESTAMP logical type, one
// of MILLIS, MICROS, or NANOS per spec.md §3, mirroring the teacher's
// Millisecond/Microsecond/Nanosecond TimeUnit singletons in type.go.
type TimeUnit int8

const (
	Millisecond TimeUnit = iota
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Millisecond:
		return "millis"
	case Microsecond:
		return "micros"
	case Nanosecond:
		return "nanos"
	default:
		return "unknown"
	}
}

// scale returns the number of units per second for u.
func (u TimeUnit) scale() int64 {
	switch u {
	case Millisecond:
		return 1e3
	case Microsecond:
		return 1e6
	default:
		return 1e9
	}
}

// truncateNanos rounds nanos toward the epoch (i.e. truncates, not
// rounds-to-nearest) down to the resolution of u, then converts to a
// count of u-sized units since the epoch. This matches spec.md's time
// rule that sub-unit precision is truncated, not rounded.
func (u TimeUnit) truncateNanos(nanos int64) int64 {
	switch u {
	case Millisecond:
		return nanos / 1e6
	case Microsecond:
		return nanos / 1e3
	default:
		return nanos
	}
}

// toNanos expands a count of u-sized units since the epoch back to
// nanoseconds since the epoch.
func (u TimeUnit) toNanos(units int64) int64 {
	switch u {
	case Millisecond:
		return units * 1e6
	case Microsecond:
		return units * 1e3
	default:
		return units
	}
}
