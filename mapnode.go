package carpet

// mapMarker tags the Node wrapping a MAP's fixed storage shape, the
// MAP analogue of listMarker, grounded on the teacher's mapNode wrapper
// struct around Group in type.go.
type mapMarker struct {
	Node
	key   Node
	value Node
}

// Map builds a MAP node with the fixed encoding required by spec.md §3:
//
//	optional group F (MAP) { repeated group key_value { required key; optional value } }
//
// directly grounded on the teacher's Map(key, value Node) constructor
// in type.go, which already produces exactly this shape. valueOptional
// controls whether the value child is wrapped Optional (the default)
// or left Required (set via the `not-null` struct tag on a map field).
func Map(key, value Node, valueOptional bool) Node {
	if valueOptional {
		value = Optional(value)
	} else {
		value = Required(value)
	}
	keyValue := NewGroup([]string{"key", "value"}, map[string]Node{
		"key":   Required(key),
		"value": value,
	})
	group := NewGroup([]string{"key_value"}, map[string]Node{
		"key_value": Repeated(keyValue),
	})
	return &mapMarker{Node: Optional(group), key: key, value: value}
}

// asMap type-asserts n to a MAP node, returning its key/value children
// if it is one.
func asMap(n Node) (key, value Node, ok bool) {
	if mm, isMap := unwrapContainer(n).(*mapMarker); isMap {
		return mm.key, mm.value, true
	}
	return nil, nil, false
}

// Set builds a SET node: shredded identically to a LIST (per spec.md
// §3.1's `a named map[K]V implementing carpet.Set[K] -> SET, shredded
// as LIST`), but tagged distinctly so Conversion can allow SET<->LIST
// interop while still reporting the declared logical type in schema
// pretty-printing. Grounded on the teacher's deprecated.MapGroup
// generic-marker-interface trick in deprecated/map.go, adapted from "is
// this a map shredded as a map" to "is this a set shredded as a list".
type setNode struct {
	Node
	element Node
}

func SetOf(element Node, convention LevelConvention) Node {
	return &setNode{Node: List(element, convention), element: element}
}

func asSet(n Node) (element Node, ok bool) {
	if sm, isSet := unwrapContainer(n).(*setNode); isSet {
		return sm.element, true
	}
	return nil, false
}
