package carpet

import (
	"errors"
	"io"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Assembler is the read-path counterpart to Shredder: it consumes
// per-column (value, r, d) triples and reconstructs records, per
// spec.md §4.E. It holds one read cursor per leaf column and advances
// them together, one logical row at a time.
type Assembler struct {
	model   *WriteRecordModel
	config  *ReaderConfig
	cursors map[ColumnPath]*columnCursor
}

// NewAssembler builds an Assembler bound to model, pulling triples from
// r for every leaf column named in model's schema.
func NewAssembler(model *WriteRecordModel, r ColumnReader, config *ReaderConfig) *Assembler {
	if config == nil {
		config = DefaultReaderConfig()
	}
	a := &Assembler{model: model, config: config, cursors: map[ColumnPath]*columnCursor{}}
	for _, path := range collectLeafPaths(model.node) {
		a.cursors[path] = &columnCursor{reader: r, path: path}
	}
	return a
}

func collectLeafPaths(root Node) []ColumnPath {
	var out []ColumnPath
	var walk func(n Node, path ColumnPath)
	walk = func(n Node, path ColumnPath) {
		if isLeaf(n) {
			out = append(out, path)
			return
		}
		for _, name := range n.ChildNames() {
			walk(n.ChildByName(name), path.Append(name))
		}
	}
	walk(root, "")
	return out
}

// triple is one (value, r, d) reading, or the exhausted sentinel.
type triple struct {
	v     Value
	r, d  int8
	valid bool
}

// columnCursor wraps a ColumnReader with one triple of lookahead, so
// the assembler can inspect the next triple's repetition level to
// decide whether a repeated field continues before committing to
// consume it.
type columnCursor struct {
	reader  ColumnReader
	path    ColumnPath
	pending *triple
	eof     bool
}

func (c *columnCursor) peek() (triple, error) {
	if c.pending != nil {
		return *c.pending, nil
	}
	if c.eof {
		return triple{}, nil
	}
	v, r, d, err := c.reader.ReadTriple(c.path)
	if errors.Is(err, io.EOF) {
		c.eof = true
		return triple{}, nil
	}
	if err != nil {
		return triple{}, err
	}
	t := triple{v: v, r: r, d: d, valid: true}
	c.pending = &t
	return t, nil
}

func (c *columnCursor) consume() { c.pending = nil }

// Next reconstructs the next record into out (a pointer to the
// Assembler's record type) and returns false, nil once every column is
// exhausted. It implements the "presence semantics" testable property
// from spec.md §8: the number of logical rows equals the number of
// r==0 triples on any column.
func (a *Assembler) Next(out interface{}) (bool, error) {
	first, ok, err := a.firstCursor()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	t, err := first.peek()
	if err != nil {
		return false, err
	}
	if !t.valid {
		return false, nil
	}

	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return false, &AssembleError{Reason: "MissingColumn", Detail: "Next requires a non-nil pointer to the record type"}
	}
	v = v.Elem()

	if err := a.assembleGroup(a.model.root, v, "", 0, 0); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Assembler) firstCursor() (*columnCursor, bool, error) {
	for _, path := range collectLeafPaths(a.model.node) {
		return a.cursors[path], true, nil
	}
	return nil, false, nil
}

// assembleGroup fills every field of the root group g into value; the
// root is always present, so no presence check is made here (nested
// groups go through assembleGroupField, which makes that check).
func (a *Assembler) assembleGroup(g *GroupModel, value reflect.Value, groupPath ColumnPath, r, d int8) error {
	for _, f := range g.Fields {
		fieldPath := groupPath.Append(fieldModelName(f))
		if err := a.assembleAt(f, a.addressableField(value, f), fieldPath, r, d); err != nil {
			return err
		}
	}
	return nil
}

// addressableField returns the destination reflect.Value for model m
// within the parent struct value, allocating intermediate pointers as
// needed. Since WriteModel's Access closures are write-path field
// extractors (reflect.Value -> reflect.Value, not settable
// destination lookups), the read path re-derives the destination by
// matching the model's Name against each exported field's column name
// (carpet tag name or alias, else the reader's FieldMatching strategy
// applied to the Go field name) or its raw Go name — the same naming
// compileStruct applies on the write side.
func (a *Assembler) addressableField(parent reflect.Value, m WriteModel) reflect.Value {
	if parent.Kind() != reflect.Struct {
		return parent
	}
	t := parent.Type()
	name := fieldModelName(m)
	naming := a.config.FieldMatching.strategy()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := parseStructTag(f.Tag.Get("carpet"))
		resolved := naming.ColumnName(f.Name)
		if tag.name != "" {
			resolved = tag.name
		}
		if tag.alias != "" {
			resolved = tag.alias
		}
		if resolved == name || f.Name == name {
			return parent.Field(i)
		}
	}
	return reflect.Value{}
}

func (a *Assembler) assembleAt(m WriteModel, dest reflect.Value, path ColumnPath, r, d int8) error {
	switch model := m.(type) {
	case *LeafModel:
		return a.assembleLeaf(model, dest, path, r)
	case *GroupModel:
		return a.assembleGroupField(model, dest, path, r, d)
	case *ListModel:
		return a.assembleList(model, dest, path, r, d)
	case *MapModel:
		return a.assembleMap(model, dest, path, r, d)
	default:
		panic("carpet: unknown WriteModel implementation")
	}
}

func (a *Assembler) assembleLeaf(m *LeafModel, dest reflect.Value, path ColumnPath, r int8) error {
	cursor := a.cursors[path]
	t, err := cursor.peek()
	if err != nil {
		return err
	}
	if !t.valid {
		if !a.config.FailOnMissingColumn {
			if dest.IsValid() && dest.CanSet() {
				dest.Set(reflect.Zero(dest.Type()))
			}
			return nil
		}
		return errMissingColumn(path)
	}
	cursor.consume()
	if t.v.IsNull() {
		if !m.Nullable && a.config.FailOnNullForPrimitives {
			return errNullIntoPrimitive(path)
		}
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	}
	v, err := a.convertLeaf(t.v, m.Type, path)
	if err != nil {
		return err
	}
	if dest.IsValid() && dest.CanSet() {
		if dest.Kind() == reflect.Ptr && dest.Type() != bigIntType {
			p := reflect.New(dest.Type().Elem())
			if err := setGoValueFromCarpetValue(p.Elem(), v, m.Type); err != nil {
				return err
			}
			dest.Set(p)
			return nil
		}
		return setGoValueFromCarpetValue(dest, v, m.Type)
	}
	return nil
}

// convertLeaf applies the Conversion policy (spec.md §4.F) whenever the
// triple's physical kind diverges from what m's destination-derived Type
// declares — the signature of a column actually written under a wider or
// narrower schema than the one this Assembler was compiled against. When
// the kinds already agree (the overwhelming majority of reads, where the
// write-side and read-side models describe the same physical shape) this
// is a no-op, exactly as before this was wired in.
func (a *Assembler) convertLeaf(v Value, to LogicalType, path ColumnPath) (Value, error) {
	from := sourceLikeType(v.Kind(), to)
	if from == nil {
		return v, nil
	}
	conv := Conversion{AllowNarrowing: !a.config.FailOnNarrowing, Rounding: RoundUnnecessary}
	out, err := conv.ConvertValue(v, from, to)
	if err != nil {
		if ce, ok := err.(*ConversionError); ok {
			return Value{}, &AssembleError{Reason: ce.Reason, Path: path, Detail: ce.Detail}
		}
		return Value{}, err
	}
	return out, nil
}

// sourceLikeType reconstructs the LogicalType a triple was most likely
// written under when its physical kind k disagrees with to's, so
// ConvertValue has a `from` to reason about. Only the int/float families
// carry enough information in Kind() alone to do this safely (INT32 vs
// INT64, FLOAT32 vs FLOAT64); every other family's Kind() is shared by
// several logical tags (STRING/ENUM/JSON/BSON all read ByteArray, for
// instance), so a genuine mismatch there is reported as incompatible
// rather than guessed at. Returns nil when k already matches to's kind,
// meaning no conversion is needed at all.
func sourceLikeType(k Kind, to LogicalType) LogicalType {
	if k == to.Kind() {
		return nil
	}
	switch k {
	case Boolean:
		return BOOLEAN
	case Int32:
		return INT32
	case Int64:
		return INT64
	case Float32:
		return FLOAT32
	case Float64:
		return FLOAT64
	case ByteArray:
		return BYTES
	default: // FixedLenByteArray
		return UUID
	}
}

func (a *Assembler) assembleGroupField(m *GroupModel, dest reflect.Value, groupPath ColumnPath, r, d int8) error {
	present, err := a.groupPresent(m, groupPath, d)
	if err != nil {
		return err
	}
	if !present {
		a.skipGroup(m, groupPath)
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	}
	if m.Nullable {
		d++
	}
	target := dest
	if dest.IsValid() && dest.Kind() == reflect.Ptr {
		if dest.IsNil() && dest.CanSet() {
			dest.Set(reflect.New(dest.Type().Elem()))
		}
		target = dest.Elem()
	}
	for _, f := range m.Fields {
		fieldPath := groupPath.Append(fieldModelName(f))
		if err := a.assembleAt(f, a.addressableField(target, f), fieldPath, r, d); err != nil {
			return err
		}
	}
	return nil
}

// groupPresent peeks the first descendant leaf's definition level to
// decide whether the group itself was written present (rule 3) or
// absent (rule 4), without consuming it. d is the definition level
// reached before the group itself; a non-nullable group is always
// present.
func (a *Assembler) groupPresent(m *GroupModel, groupPath ColumnPath, d int8) (bool, error) {
	firstPath := groupPath.Append(fieldModelName(m.Fields[0]))
	t, err := a.peekLeafUnder(m.Fields[0], firstPath)
	if err != nil {
		return false, err
	}
	if !t.valid {
		return false, nil
	}
	if !m.Nullable {
		return true, nil
	}
	return t.d > d, nil
}

// peekLeafUnder descends into the first leaf reachable from m without
// consuming anything, used only to test presence.
func (a *Assembler) peekLeafUnder(m WriteModel, path ColumnPath) (triple, error) {
	switch t := m.(type) {
	case *LeafModel:
		return a.cursors[path].peek()
	case *GroupModel:
		return a.peekLeafUnder(t.Fields[0], path.Append(fieldModelName(t.Fields[0])))
	case *ListModel:
		return a.peekLeafUnder(t.Element, listElementPath(t, path))
	case *MapModel:
		return a.peekLeafUnder(t.Key, mapKeyPath(t, path))
	default:
		panic("carpet: unknown WriteModel implementation")
	}
}

// mapKeyPath returns the column-path prefix at which m's key (or, for a
// SET, its sole element) is rooted: key_value.key for a MAP, list.element
// for a SET, mirroring shredSetAsList's path choice on the write side.
func mapKeyPath(m *MapModel, mapPath ColumnPath) ColumnPath {
	if m.IsSet {
		return listElementPathFor(m.Convention, mapPath)
	}
	return mapPath.Append("key_value").Append("key")
}

// skipGroup consumes the single absent-group triple from every
// descendant leaf column.
func (a *Assembler) skipGroup(m *GroupModel, groupPath ColumnPath) {
	for _, f := range m.Fields {
		a.skipAt(f, groupPath.Append(fieldModelName(f)))
	}
}

func (a *Assembler) skipAt(m WriteModel, path ColumnPath) {
	switch t := m.(type) {
	case *LeafModel:
		a.cursors[path].consume()
	case *GroupModel:
		a.skipGroup(t, path)
	case *ListModel:
		a.skipAt(t.Element, listElementPath(t, path))
	case *MapModel:
		a.skipAt(t.Key, mapKeyPath(t, path))
		if !t.IsSet {
			a.skipAt(t.Value, path.Append("key_value").Append("value"))
		}
	}
}

func (a *Assembler) assembleList(m *ListModel, dest reflect.Value, listPath ColumnPath, r, d int8) error {
	elementPath := listElementPath(m, listPath)
	t, err := a.peekLeafUnder(m.Element, elementPath)
	if err != nil {
		return err
	}
	if !t.valid {
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	}

	dList, dEntry := containerDefLevels(d, m.Nullable, m.Convention == OneLevel)

	if m.Convention == OneLevel {
		// ONE-LEVEL can't tell "absent" from "empty" apart; both are a
		// null triple at the element's own path (mirrors shredList).
		if t.v.IsNull() {
			a.skipAt(m.Element, elementPath)
			if dest.IsValid() && dest.CanSet() {
				dest.Set(reflect.Zero(dest.Type()))
			}
			return nil
		}
	} else if t.d < dList {
		// container itself is null.
		a.skipAt(m.Element, elementPath)
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	} else if t.d == dList {
		// container present, zero elements: must stay a non-nil empty
		// slice, distinct from the null case above.
		a.skipAt(m.Element, elementPath)
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.MakeSlice(dest.Type(), 0, 0))
		}
		return nil
	}

	rList := r + 1
	var elements []reflect.Value
	var elemType reflect.Type
	if dest.IsValid() {
		elemType = dest.Type().Elem()
	}

	first := true
	for {
		t, err := a.peekLeafUnder(m.Element, elementPath)
		if err != nil {
			return err
		}
		if !t.valid {
			break
		}
		if !first && t.r < rList {
			break // this repetition level indicates the list has ended
		}
		first = false

		var elem reflect.Value
		if elemType != nil {
			elem = reflect.New(elemType).Elem()
		}
		if err := a.assembleAt(m.Element, elem, elementPath, rList, dEntry); err != nil {
			return err
		}
		if elemType != nil {
			elements = append(elements, elem)
		}
	}

	if dest.IsValid() && dest.CanSet() && elemType != nil {
		slice := reflect.MakeSlice(dest.Type(), len(elements), len(elements))
		for i, e := range elements {
			slice.Index(i).Set(e)
		}
		dest.Set(slice)
	}
	return nil
}

func (a *Assembler) assembleMap(m *MapModel, dest reflect.Value, mapPath ColumnPath, r, d int8) error {
	keyPath := mapKeyPath(m, mapPath)
	valuePath := mapPath.Append("key_value").Append("value")

	t, err := a.peekLeafUnder(m.Key, keyPath)
	if err != nil {
		return err
	}
	if !t.valid {
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	}

	oneLevel := m.IsSet && m.Convention == OneLevel
	dMap, dEntry := containerDefLevels(d, m.Nullable, oneLevel)

	if oneLevel {
		// SET shredded ONE-LEVEL inherits LIST's absent/empty ambiguity.
		if t.v.IsNull() {
			a.skipAt(m.Key, keyPath)
			if dest.IsValid() && dest.CanSet() {
				dest.Set(reflect.Zero(dest.Type()))
			}
			return nil
		}
	} else if t.d < dMap {
		// container itself is null.
		a.skipAt(m.Key, keyPath)
		if !m.IsSet {
			a.skipAt(m.Value, valuePath)
		}
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.Zero(dest.Type()))
		}
		return nil
	} else if t.d == dMap {
		// container present, zero entries: must stay a non-nil empty map.
		a.skipAt(m.Key, keyPath)
		if !m.IsSet {
			a.skipAt(m.Value, valuePath)
		}
		if dest.IsValid() && dest.CanSet() {
			dest.Set(reflect.MakeMap(dest.Type()))
		}
		return nil
	}

	rEntry := r + 1
	var mapValue reflect.Value
	var keyType, valType reflect.Type
	if dest.IsValid() {
		keyType = dest.Type().Key()
		if !m.IsSet {
			valType = dest.Type().Elem()
		}
		mapValue = reflect.MakeMap(dest.Type())
	}

	first := true
	for {
		t, err := a.peekLeafUnder(m.Key, keyPath)
		if err != nil {
			return err
		}
		if !t.valid {
			break
		}
		if !first && t.r < rEntry {
			break
		}
		first = false

		var key reflect.Value
		if keyType != nil {
			key = reflect.New(keyType).Elem()
		}
		if err := a.assembleAt(m.Key, key, keyPath, rEntry, dEntry); err != nil {
			return err
		}
		if m.IsSet {
			if mapValue.IsValid() {
				mapValue.SetMapIndex(key, reflect.ValueOf(struct{}{}))
			}
			continue
		}
		var val reflect.Value
		if valType != nil {
			val = reflect.New(valType).Elem()
		}
		if err := a.assembleAt(m.Value, val, valuePath, rEntry, dEntry); err != nil {
			return err
		}
		if mapValue.IsValid() {
			mapValue.SetMapIndex(key, val)
		}
	}

	if dest.IsValid() && dest.CanSet() && mapValue.IsValid() {
		dest.Set(mapValue)
	}
	return nil
}

// setGoValueFromCarpetValue is the inverse of goValueToCarpetValue: it
// materializes v (already converted to t's Kind) into dest according
// to t's logical meaning.
func setGoValueFromCarpetValue(dest reflect.Value, v Value, t LogicalType) error {
	switch lt := t.(type) {
	case booleanType:
		dest.SetBool(v.Boolean())
	case intType:
		if lt.kind == Int64 {
			dest.SetInt(v.Int64())
		} else {
			dest.SetInt(int64(v.Int32()))
		}
	case floatType:
		if lt.bitWidth == 64 {
			dest.SetFloat(v.Float64())
		} else {
			dest.SetFloat(float64(v.Float32()))
		}
	case binaryStringType:
		dest.SetString(string(v.ByteArray()))
	case bytesType, geoType:
		dest.SetBytes(v.ByteArray())
	case uuidType:
		id, err := v.UUID()
		if err != nil {
			return err
		}
		if dest.Type() == reflect.TypeOf(uuid.UUID{}) {
			dest.Set(reflect.ValueOf(id))
		} else {
			reflect.Copy(dest, reflect.ValueOf(id))
		}
	case decimalType:
		d := decimalFromLeaf(v, lt)
		if dest.Type() == reflect.TypeOf(Decimal{}) {
			dest.Set(reflect.ValueOf(d))
		} else if dest.Type() == bigIntType {
			dest.Set(reflect.ValueOf(d.Unscaled))
		} else {
			dest.SetInt(d.Unscaled.Int64())
		}
	case dateType:
		dest.SetInt(int64(v.Int32()))
	case timeType:
		dest.SetInt(v.Int64())
	case timestampType:
		nanos := lt.unit.toNanos(v.Int64())
		if dest.Type() == reflect.TypeOf(LocalDateTime{}) {
			dest.Set(reflect.ValueOf(localDateTimeFromEpochNanos(nanos)))
		} else {
			dest.Set(reflect.ValueOf(time.Unix(0, nanos).UTC()))
		}
	default:
		return errUnsupportedValueKind(t)
	}
	return nil
}

func decimalFromLeaf(v Value, lt decimalType) Decimal {
	switch lt.Kind() {
	case Int32:
		return Decimal{Unscaled: big.NewInt(int64(v.Int32())), Scale: lt.scale}
	case Int64:
		return Decimal{Unscaled: big.NewInt(v.Int64()), Scale: lt.scale}
	default:
		return Decimal{Unscaled: new(big.Int).SetBytes(v.ByteArray()), Scale: lt.scale}
	}
}
