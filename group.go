package carpet

// Group is a composite node made of named child fields. It underlies
// plain GROUP nodes as well as the GROUP(LIST) and GROUP(MAP) shapes
// layered on top of it by list.go and mapnode.go.
//
// Group preserves child insertion order (unlike the teacher's
// map[string]Node-backed Group, which always reports names sorted),
// because Invariant 1 requires column ordering that matches struct
// field declaration order on the reflective path.
type Group struct {
	names    []string
	children map[string]Node
}

// NewGroup constructs a Group whose children appear in the given order.
// names must list every key present in children exactly once.
func NewGroup(names []string, children map[string]Node) *Group {
	return &Group{names: append([]string(nil), names...), children: children}
}

func (g *Group) Type() LogicalType { panic("carpet: cannot call Type on a group node") }
func (g *Group) Optional() bool    { return false }
func (g *Group) Repeated() bool    { return false }
func (g *Group) Required() bool    { return true }
func (g *Group) NumChildren() int  { return len(g.names) }

func (g *Group) ChildNames() []string {
	return append([]string(nil), g.names...)
}

func (g *Group) ChildByName(name string) Node {
	n, ok := g.children[name]
	if !ok {
		panic("carpet: column not found in group: " + name)
	}
	return n
}
