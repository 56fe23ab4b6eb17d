package carpet

import "reflect"

// accessor extracts a child reflect.Value from a parent reflect.Value,
// the "bound field accessor" spec.md §4.C requires every WriteModel
// leaf to carry. Both the reflective and explicit construction paths
// produce closures of this shape; the shredder never performs
// reflection itself beyond calling these.
type accessor func(reflect.Value) reflect.Value

// WriteModel is the tagged sum described in spec.md §4.C: every node is
// exactly one of LeafModel, GroupModel, ListModel, MapModel. It
// generalizes the teacher's Node/Group/listNode/mapNode family in
// node.go/group.go/type.go from "wraps a LogicalType" to "wraps a
// LogicalType plus a bound Go value accessor", removing the shredder's
// dependency on reflect.Type beyond what was resolved at model-build
// time.
type WriteModel interface {
	// node returns the corresponding schema Node for this model.
	node() Node
	// get extracts this model's reflect.Value out of parent.
	get(parent reflect.Value) reflect.Value
}

// LeafModel binds a logical type to a field accessor.
type LeafModel struct {
	Name     string
	Type     LogicalType
	Nullable bool
	Access   accessor
}

func (m *LeafModel) node() Node {
	n := Leaf(m.Type)
	if m.Nullable {
		n = Optional(n)
	}
	return n
}
func (m *LeafModel) get(parent reflect.Value) reflect.Value { return m.Access(parent) }

// GroupModel binds a nested record type to a field accessor.
type GroupModel struct {
	Name     string
	Nullable bool
	Fields   []WriteModel
	Access   accessor
}

func (m *GroupModel) node() Node {
	names := make([]string, len(m.Fields))
	children := make(map[string]Node, len(m.Fields))
	for i, f := range m.Fields {
		name := fieldModelName(f)
		names[i] = name
		children[name] = f.node()
	}
	n := Node(NewGroup(names, children))
	if m.Nullable {
		n = Optional(n)
	}
	return n
}
func (m *GroupModel) get(parent reflect.Value) reflect.Value { return m.Access(parent) }

// ListModel binds a slice-typed field to its element model.
type ListModel struct {
	Name       string
	Nullable   bool
	Convention LevelConvention
	Element    WriteModel
	Access     accessor
}

func (m *ListModel) node() Node {
	n := List(m.Element.node(), m.Convention)
	if !m.Nullable {
		n = Required(n)
	}
	return n
}
func (m *ListModel) get(parent reflect.Value) reflect.Value { return m.Access(parent) }

// MapModel binds a map-typed field to its key/value models.
type MapModel struct {
	Name          string
	Nullable      bool
	ValueNullable bool
	IsSet         bool
	Convention    LevelConvention // only meaningful when IsSet: rule 10's "shredded exactly as LIST" follows the same convention selection LIST itself uses
	Key           WriteModel
	Value         WriteModel
	Access        accessor
}

func (m *MapModel) node() Node {
	var n Node
	if m.IsSet {
		n = SetOf(m.Key.node(), m.Convention)
	} else {
		n = Map(m.Key.node(), m.Value.node(), m.ValueNullable)
	}
	if !m.Nullable {
		n = Required(n)
	}
	return n
}
func (m *MapModel) get(parent reflect.Value) reflect.Value { return m.Access(parent) }

func fieldModelName(m WriteModel) string {
	switch t := m.(type) {
	case *LeafModel:
		return t.Name
	case *GroupModel:
		return t.Name
	case *ListModel:
		return t.Name
	case *MapModel:
		return t.Name
	default:
		panic("carpet: unknown WriteModel implementation")
	}
}

// WriteRecordModel is the compiled, immutable write model for one
// record type: its root is always a GroupModel, matching spec.md's
// "record schema is a tree whose root is GROUP" data model.
type WriteRecordModel struct {
	root *GroupModel
	node Node
}

// Node returns the schema Node this model compiles to.
func (m *WriteRecordModel) Node() Node { return m.node }

// Root returns the root GroupModel.
func (m *WriteRecordModel) Root() *GroupModel { return m.root }
