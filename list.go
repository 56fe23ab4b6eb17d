package carpet

// LevelConvention selects which of the three Parquet LIST encodings
// BuildSchema emits, per spec.md §3/§6 `level_convention` writer
// option.
type LevelConvention int8

const (
	// ThreeLevel is the modern, default shape:
	//   optional group F (LIST) { repeated group list { element } }
	// where element is optional or required as its own model declares.
	ThreeLevel LevelConvention = iota
	// TwoLevel omits the inner "list" wrapper group:
	//   optional group F (LIST) { repeated element }
	TwoLevel
	// OneLevel is the legacy shape with no wrapping group at all: the
	// element node is simply marked repeated. It cannot represent two
	// repeated fields back-to-back without an intervening group
	// (ConsecutiveLists, spec.md §7.1).
	OneLevel
)

// listMarker is embedded in the Node wrapping a LIST's storage shape so
// that schema.go and shred.go can recognize "this Group is a LIST" and
// recover its element node, regardless of which of the three
// conventions built it. It mirrors the closed-set tagging the teacher
// uses for listNode/mapNode in type.go (distinct wrapper structs around
// Group, recognized by a type switch).
type listMarker struct {
	Node
	convention LevelConvention
	element    Node
}

func (l *listMarker) elementNode() Node { return l.element }

// oneLevelList returns a LIST node built under the ONE-LEVEL
// convention: element itself is marked Repeated, with no wrapping
// group. Two such lists cannot appear as consecutive unnamed children
// of the same group (ConsecutiveLists); BuildSchema enforces that
// separately.
func oneLevelList(element Node) Node {
	return &listMarker{Node: Repeated(element), convention: OneLevel, element: element}
}

// twoLevelList returns a LIST node built under the TWO-LEVEL
// convention: optional group F (LIST) { repeated element }.
func twoLevelList(element Node) Node {
	group := NewGroup([]string{"element"}, map[string]Node{
		"element": Repeated(element),
	})
	return &listMarker{Node: Optional(group), convention: TwoLevel, element: element}
}

// threeLevelList returns a LIST node built under the THREE-LEVEL
// convention (the default): optional group F (LIST) { repeated group
// list { element } }, with element's own optional/required marking kept
// as given, directly grounded on the teacher's
// List(of Node) constructor in type.go, which always builds this shape.
// This is also the one convention that can represent a nested empty
// list (zero repetitions of "list") distinctly from a null list, per
// SPEC_FULL.md's Open Question resolution.
func threeLevelList(element Node) Node {
	inner := NewGroup([]string{"element"}, map[string]Node{
		"element": element,
	})
	group := NewGroup([]string{"list"}, map[string]Node{
		"list": Repeated(inner),
	})
	return &listMarker{Node: Optional(group), convention: ThreeLevel, element: element}
}

// List builds a LIST node using convention, the dispatch point named in
// SPEC_FULL.md §4.B.
func List(element Node, convention LevelConvention) Node {
	switch convention {
	case OneLevel:
		return oneLevelList(element)
	case TwoLevel:
		return twoLevelList(element)
	default:
		return threeLevelList(element)
	}
}

// asList type-asserts n to a LIST node, returning (element, convention,
// true) if n is one.
func asList(n Node) (element Node, convention LevelConvention, ok bool) {
	if lm, isList := unwrapContainer(n).(*listMarker); isList {
		return lm.element, lm.convention, true
	}
	return nil, 0, false
}
