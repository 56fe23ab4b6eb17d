package carpet

import "strings"

// ColumnPath identifies a leaf column by its dotted path from the
// record root, e.g. "user.addresses.list.element.city". It is the key
// the Shredder and Assembler use to address the external column
// writer/reader, grounded on the teacher's columnPath []string type in
// column_buffer_go18.go, collapsed here to a single comparable string
// since carpet never needs to mutate a path segment-by-segment outside
// of construction.
type ColumnPath string

// NewColumnPath joins segments into a ColumnPath.
func NewColumnPath(segments ...string) ColumnPath {
	return ColumnPath(strings.Join(segments, "."))
}

// Append returns a new ColumnPath with segment appended.
func (p ColumnPath) Append(segment string) ColumnPath {
	if p == "" {
		return ColumnPath(segment)
	}
	return ColumnPath(string(p) + "." + segment)
}

// Segments splits the path back into its components.
func (p ColumnPath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// ColumnWriter is the external collaborator that carpet's Shredder
// emits (value, repetition level, definition level) triples to, one
// per leaf column. It owns everything carpet explicitly does not:
// physical page encoding, compression, dictionary building, and file
// I/O, per spec.md §1/§6.
type ColumnWriter interface {
	// AppendLeaf emits one shredded triple for the column at path.
	AppendLeaf(path ColumnPath, v Value, repetitionLevel, definitionLevel int8) error

	// StartRowGroup and EndRowGroup bracket a batch of rows the caller
	// has chosen to flush together; carpet has no opinion on row-group
	// sizing, only on whether a group is currently open.
	StartRowGroup() error
	EndRowGroup() error

	// Finalize closes the writer, attaching the given key/value
	// metadata to the finished file.
	Finalize(metadata map[string]string) error
}

// ColumnReader is the external collaborator that carpet's Assembler
// pulls (value, repetition level, definition level) triples from, one
// column at a time, to reconstruct records.
type ColumnReader interface {
	// ReadTriple returns the next shredded triple for the column at
	// path, or io.EOF once the column is exhausted.
	ReadTriple(path ColumnPath) (v Value, repetitionLevel, definitionLevel int8, err error)
}
