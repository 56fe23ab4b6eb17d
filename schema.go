package carpet

import (
	"fmt"
	"reflect"
	"strings"
)

// Schema is the immutable root of a derived or explicitly-built record
// schema tree, annotated with the (max_repetition, max_definition) pair
// of every leaf column, per spec.md §4.B. It plays the role of the
// teacher's old root Schema type in schema.go, rebuilt against Node
// instead of the thrift-derived tree the teacher walked.
type Schema struct {
	name   string
	root   Node
	levels map[ColumnPath]levels
	leaves []ColumnPath // in schema (declaration) order
}

// BuildSchema walks recordType (which must be a struct or pointer to
// struct) and produces its Schema, per spec.md §4.B. This is the
// reflective path; NewExplicitSchema below is the explicit-model path.
func BuildSchema(recordType reflect.Type, config *WriterConfig) (*Schema, error) {
	model, err := compileReflectModel(recordType, config)
	if err != nil {
		return nil, err
	}
	return NewExplicitSchema(recordType.Name(), model.node)
}

// NewExplicitSchema wraps an already-constructed Node tree (the output
// of the explicit write-model path) as a named Schema.
func NewExplicitSchema(name string, root Node) (*Schema, error) {
	if name == "" {
		name = "Record"
	}
	s := &Schema{name: name, root: root, levels: maxLevels(root)}
	var walk func(n Node, path ColumnPath)
	walk = func(n Node, path ColumnPath) {
		if isLeaf(n) {
			s.leaves = append(s.leaves, path)
			return
		}
		for _, name := range n.ChildNames() {
			walk(n.ChildByName(name), path.Append(name))
		}
	}
	walk(root, "")
	return s, nil
}

// Root returns the schema's root GROUP node.
func (s *Schema) Root() Node { return s.root }

// Name returns the schema's message name.
func (s *Schema) Name() string { return s.name }

// Leaves returns every leaf column path in schema (declaration) order.
func (s *Schema) Leaves() []ColumnPath {
	out := make([]ColumnPath, len(s.leaves))
	copy(out, s.leaves)
	return out
}

func (s *Schema) levelsFor(path ColumnPath) levels {
	l, ok := s.levels[path]
	if !ok {
		panic(fmt.Sprintf("carpet: unknown column path %q", path))
	}
	return l
}

// String pretty-prints the schema in the canonical textual form from
// spec.md §6:
//
//	message <RootName> {
//	  (optional|required|repeated) <physical> <name> [(<LOGICAL[(args)]>)];
//	  optional group <name> [(LIST|MAP)] { … }
//	}
func (s *Schema) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "message %s {\n", s.name)
	for _, name := range s.root.ChildNames() {
		writeNode(&b, 1, name, s.root.ChildByName(name))
	}
	b.WriteString("}")
	return b.String()
}

func writeNode(b *strings.Builder, depth int, name string, n Node) {
	indent := strings.Repeat("  ", depth)
	rep := repetitionKeyword(n)

	if element, convention, ok := asList(n); ok && convention != OneLevel {
		if convention == TwoLevel {
			fmt.Fprintf(b, "%s%s group %s (LIST) {\n", indent, rep, name)
			writeNode(b, depth+1, "element", Repeated(element))
			fmt.Fprintf(b, "%s}\n", indent)
			return
		}
		fmt.Fprintf(b, "%s%s group %s (LIST) {\n", indent, rep, name)
		fmt.Fprintf(b, "%s  repeated group list {\n", indent)
		writeNode(b, depth+2, "element", element)
		fmt.Fprintf(b, "%s  }\n", indent)
		fmt.Fprintf(b, "%s}\n", indent)
		return
	}
	// ONE-LEVEL has no wrapping group at all: the element node is simply
	// marked repeated, so it falls straight through to the leaf/group
	// printing below using n (== Repeated(element)) itself.
	if key, value, ok := asMap(n); ok {
		fmt.Fprintf(b, "%s%s group %s (MAP) {\n", indent, rep, name)
		fmt.Fprintf(b, "%s  repeated group key_value {\n", indent)
		writeNode(b, depth+2, "key", key)
		writeNode(b, depth+2, "value", value)
		fmt.Fprintf(b, "%s  }\n", indent)
		fmt.Fprintf(b, "%s}\n", indent)
		return
	}
	if isLeaf(n) {
		fmt.Fprintf(b, "%s%s %s %s (%s);\n", indent, rep, physicalName(n.Type().Kind()), name, n.Type().String())
		return
	}
	fmt.Fprintf(b, "%s%s group %s {\n", indent, rep, name)
	for _, childName := range n.ChildNames() {
		writeNode(b, depth+1, childName, n.ChildByName(childName))
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func repetitionKeyword(n Node) string {
	switch {
	case n.Repeated():
		return "repeated"
	case n.Optional():
		return "optional"
	default:
		return "required"
	}
}

func physicalName(k Kind) string {
	switch k {
	case Boolean:
		return "boolean"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float"
	case Float64:
		return "double"
	case FixedLenByteArray:
		return "fixed_len_byte_array"
	default:
		return "byte_array"
	}
}
