package carpet

// Node is one position in a schema tree: either a leaf bound to a
// LogicalType, or a composite (GROUP/LIST/MAP) bound to child Nodes.
//
// Node values are immutable and safe to share across writers, exactly
// like the teacher's Node/Type values.
type Node interface {
	// Type returns the leaf logical type. It panics when called on a
	// composite (group/list/map) node.
	Type() LogicalType

	Optional() bool
	Repeated() bool
	Required() bool

	// NumChildren, ChildNames and ChildByName describe composite nodes.
	// They return 0, nil, and a panic respectively for leaves.
	NumChildren() int
	ChildNames() []string
	ChildByName(name string) Node
}

func isLeaf(n Node) bool { return n.NumChildren() == 0 }

// unwrapContainer strips the Required/Optional bookkeeping wrappers
// down to the underlying node, since those wrappers only override
// Optional/Repeated/Required reporting and otherwise delegate
// everything (including any LIST/MAP/SET marker identity) to the node
// they embed.
func unwrapContainer(n Node) Node {
	for {
		switch t := n.(type) {
		case *requiredNode:
			n = t.Node
		case *optionalNode:
			n = t.Node
		default:
			return n
		}
	}
}

// Leaf constructs a required leaf node of the given logical type.
func Leaf(t LogicalType) Node { return &leafNode{typ: t} }

type leafNode struct{ typ LogicalType }

func (n *leafNode) Type() LogicalType      { return n.typ }
func (n *leafNode) Optional() bool         { return false }
func (n *leafNode) Repeated() bool         { return false }
func (n *leafNode) Required() bool         { return true }
func (n *leafNode) NumChildren() int       { return 0 }
func (n *leafNode) ChildNames() []string   { return nil }
func (n *leafNode) ChildByName(string) Node {
	panic("carpet: cannot look up a child of a leaf node")
}

// Optional wraps node so that it is no longer required; it raises the
// definition-level ceiling of everything beneath it by one, per
// Invariant 3 and the Shredder rules 2-4.
func Optional(node Node) Node {
	if node.Optional() {
		return node
	}
	return &optionalNode{node}
}

type optionalNode struct{ Node }

func (n *optionalNode) Optional() bool { return true }
func (n *optionalNode) Repeated() bool { return false }
func (n *optionalNode) Required() bool { return false }

// Repeated wraps node so that it is repeated; it raises the
// repetition-level ceiling of everything beneath it by one.
func Repeated(node Node) Node {
	if node.Repeated() {
		return node
	}
	return &repeatedNode{node}
}

type repeatedNode struct{ Node }

func (n *repeatedNode) Optional() bool { return false }
func (n *repeatedNode) Repeated() bool { return true }
func (n *repeatedNode) Required() bool { return false }

// Required wraps node so that it can no longer be null.
func Required(node Node) Node {
	if node.Required() {
		return node
	}
	return &requiredNode{node}
}

type requiredNode struct{ Node }

func (n *requiredNode) Optional() bool { return false }
func (n *requiredNode) Repeated() bool { return false }
func (n *requiredNode) Required() bool { return true }
