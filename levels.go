package carpet

// levels tracks the running repetition/definition bookkeeping during a
// schema or record walk, renamed and carried over from the teacher's
// columnLevels struct in column_buffer_go18.go (repetitionLevel,
// repetitionDepth, definitionLevel) which plays the identical role
// there for the legacy column-buffer write path.
type levels struct {
	repetitionDepth int8 // max repetition level reachable at this point
	repetitionLevel int8 // repetition level of the value most recently emitted
	definitionLevel int8 // definition level reachable at this point
}

// enterOptional returns the levels reached after descending through an
// optional node: the definition-level ceiling rises by one.
func (l levels) enterOptional() levels {
	l.definitionLevel++
	return l
}

// enterRepeated returns the levels reached after descending through a
// repeated node: both the repetition-level ceiling and the
// definition-level ceiling rise by one (an empty repetition is itself
// representable as "defined but absent", matching the teacher's
// convertFuncOfRepeated bookkeeping in convert.go).
func (l levels) enterRepeated() levels {
	l.repetitionDepth++
	l.definitionLevel++
	return l
}

// maxLevels walks node and returns the (maxRepetitionLevel,
// maxDefinitionLevel) pair reachable at each leaf, keyed by ColumnPath.
// This is the schema-time computation behind Invariant "Level bounds"
// in spec.md §8.
func maxLevels(root Node) map[ColumnPath]levels {
	out := map[ColumnPath]levels{}
	var walk func(n Node, path ColumnPath, l levels)
	walk = func(n Node, path ColumnPath, l levels) {
		if n.Optional() {
			l = l.enterOptional()
		}
		if n.Repeated() {
			l = l.enterRepeated()
		}
		if isLeaf(n) {
			out[path] = l
			return
		}
		for _, name := range n.ChildNames() {
			walk(n.ChildByName(name), path.Append(name), l)
		}
	}
	walk(root, "", levels{})
	return out
}

// containerDefLevels returns the definition level at which a LIST/MAP/SET
// container's own presence is recorded (dContainer: d, or d+1 when the
// container itself can be null) and the definition level its first
// entry is recorded at (dEntry: one further level, except under
// ONE-LEVEL, whose repeated leaf has no separate wrapper to descend
// through). The Shredder and Assembler both call this so they agree
// exactly on where "absent", "empty", and "first entry" land for a
// given container.
func containerDefLevels(d int8, nullable, oneLevel bool) (dContainer, dEntry int8) {
	dContainer = d
	if nullable {
		dContainer++
	}
	dEntry = dContainer
	if !oneLevel {
		dEntry++
	}
	return dContainer, dEntry
}

// MaxRepetitionLevel and MaxDefinitionLevel report the level ceilings
// for the column at path within schema, per spec.md's `max_rep`/
// `max_def` testable property.
func MaxRepetitionLevel(schema *Schema, path ColumnPath) int8 {
	return schema.levelsFor(path).repetitionDepth
}

func MaxDefinitionLevel(schema *Schema, path ColumnPath) int8 {
	return schema.levelsFor(path).definitionLevel
}
