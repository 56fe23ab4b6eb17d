package carpet

import "io"

// memColumnStore is an in-memory ColumnWriter/ColumnReader pair used
// throughout the test suite to round-trip a Shredder's output back
// through an Assembler, without needing a real physical page encoder
// (explicitly out of carpet's scope, per spec.md §1).
type memColumnStore struct {
	columns map[ColumnPath][]storedTriple
}

type storedTriple struct {
	v    Value
	r, d int8
}

func newMemColumnStore() *memColumnStore {
	return &memColumnStore{columns: map[ColumnPath][]storedTriple{}}
}

func (s *memColumnStore) AppendLeaf(path ColumnPath, v Value, r, d int8) error {
	s.columns[path] = append(s.columns[path], storedTriple{v: v, r: r, d: d})
	return nil
}

func (s *memColumnStore) StartRowGroup() error                     { return nil }
func (s *memColumnStore) EndRowGroup() error                       { return nil }
func (s *memColumnStore) Finalize(metadata map[string]string) error { return nil }

// Reader returns a fresh ColumnReader over everything written so far.
func (s *memColumnStore) Reader() *memColumnReader {
	return &memColumnReader{store: s, cursor: map[ColumnPath]int{}}
}

type memColumnReader struct {
	store  *memColumnStore
	cursor map[ColumnPath]int
}

func (r *memColumnReader) ReadTriple(path ColumnPath) (Value, int8, int8, error) {
	values := r.store.columns[path]
	i := r.cursor[path]
	if i >= len(values) {
		return Value{}, 0, 0, io.EOF
	}
	r.cursor[path]++
	t := values[i]
	return t.v, t.r, t.d, nil
}

var (
	_ ColumnWriter = (*memColumnStore)(nil)
	_ ColumnReader = (*memColumnReader)(nil)
)
