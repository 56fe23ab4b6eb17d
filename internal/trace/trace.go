// Package trace provides toggleable diagnostic logging; cmd/carpetschema
// is its only caller. It is off by default and adds no overhead unless
// a caller opts in, the same contract as the teacher's internal/debug
// package it replaces.
package trace

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/mitchellh/reflectwalk"
)

var enabled int32

// Toggle enables or disables trace output process-wide.
func Toggle(on bool) {
	if on {
		atomic.StoreInt32(&enabled, 1)
	} else {
		atomic.StoreInt32(&enabled, 0)
	}
}

// Enabled reports whether tracing is currently switched on.
func Enabled() bool { return atomic.LoadInt32(&enabled) != 0 }

// Printf writes a trace line to w when tracing is enabled.
func Printf(w io.Writer, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(w, format, args...)
}

// Format is Printf against os.Stderr, mirroring the teacher's
// debug.Format(format, args...) helper.
func Format(format string, args ...interface{}) {
	Printf(os.Stderr, format, args...)
}

// DescribeRecord renders a best-effort structural dump of v, whether or
// not tracing is enabled; nothing in this module calls it. It walks the value
// with reflectwalk rather than carpet's own reflect.Type walk, since this
// is a diagnostic aid, not part of the schema-derivation hot path.
func DescribeRecord(v interface{}) string {
	w := &describeWalker{}
	if err := reflectwalk.Walk(v, w); err != nil {
		return fmt.Sprintf("<describe error: %s>", err)
	}
	return w.buf.String()
}

type describeWalker struct {
	buf   strings.Builder
	depth int
}

func (w *describeWalker) indent() string { return strings.Repeat("  ", w.depth) }

func (w *describeWalker) Enter(loc reflectwalk.Location) error {
	if loc == reflectwalk.Struct || loc == reflectwalk.Slice || loc == reflectwalk.Map {
		w.depth++
	}
	return nil
}

func (w *describeWalker) Exit(loc reflectwalk.Location) error {
	if loc == reflectwalk.Struct || loc == reflectwalk.Slice || loc == reflectwalk.Map {
		w.depth--
	}
	return nil
}

func (w *describeWalker) Primitive(v reflect.Value) error {
	fmt.Fprintf(&w.buf, "%s%v\n", w.indent(), v)
	return nil
}
