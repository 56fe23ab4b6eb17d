package carpet

import (
	"fmt"
	"time"
)

// LocalDateTime is a calendar date and time of day with no associated
// time zone: the Go value TIMESTAMP(unit, isAdjustedToUTC=false) fields
// are shredded from and assembled into, resolving SPEC_FULL.md's Open
// Question on local-datetime round-tripping. Unlike time.Time, which
// always carries a location, LocalDateTime stores only the naive wall
// clock components so that MILLIS/MICROS truncation and round-trip are
// unconditional and never depend on a monotonic reading or zone offset.
type LocalDateTime struct {
	Year                          int
	Month                         time.Month
	Day, Hour, Minute, Second     int
	Nanosecond                    int
}

// toEpochNanos converts l to nanoseconds since the Unix epoch, treating
// l's wall-clock fields as UTC purely as an arithmetic convenience (no
// zone conversion is implied or lost, since LocalDateTime has no zone
// to begin with).
func (l LocalDateTime) toEpochNanos() int64 {
	t := time.Date(l.Year, l.Month, l.Day, l.Hour, l.Minute, l.Second, l.Nanosecond, time.UTC)
	return t.UnixNano()
}

// localDateTimeFromEpochNanos is the inverse of toEpochNanos.
func localDateTimeFromEpochNanos(nanos int64) LocalDateTime {
	t := time.Unix(0, nanos).UTC()
	return LocalDateTime{
		Year: t.Year(), Month: t.Month(), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

func (l LocalDateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09d",
		l.Year, int(l.Month), l.Day, l.Hour, l.Minute, l.Second, l.Nanosecond)
}
