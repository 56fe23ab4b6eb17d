package carpet

import (
	"math/big"
	"reflect"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// Shredder drives the depth-first traversal described in spec.md §4.D,
// emitting (value, r, d) triples to an external ColumnWriter for every
// leaf column of one record at a time. It holds no state across rows
// (spec.md §5): construct one per writer and call Shred once per
// record.
type Shredder struct {
	config *WriterConfig
	model  *WriteRecordModel
}

// NewShredder builds a Shredder bound to model, using config for
// decimal rescaling/rounding defaults.
func NewShredder(model *WriteRecordModel, config *WriterConfig) *Shredder {
	if config == nil {
		config = DefaultWriterConfig()
	}
	return &Shredder{config: config, model: model}
}

// Shred shreds one record value into w. record must be assignable to
// the reflect.Type the Shredder's model was compiled from.
func (s *Shredder) Shred(w ColumnWriter, record interface{}) error {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &ShredError{Reason: "RequiredFieldNull", Detail: "top-level record must not be nil"}
		}
		v = v.Elem()
	}
	return shredGroupFields(w, s.config, "", s.model.root, v, 0, 0)
}

// shredGroupFields shreds every field of a (guaranteed present) group
// value, rule 3's "recurse" step. Each field's full column path is
// computed once here; every shredAt call below is given that complete
// path and never appends its own name again.
func shredGroupFields(w ColumnWriter, config *WriterConfig, groupPath ColumnPath, g *GroupModel, value reflect.Value, r, d int8) error {
	for _, f := range g.Fields {
		fieldPath := groupPath.Append(fieldModelName(f))
		if err := shredAt(w, config, fieldPath, f, value, r, d); err != nil {
			return err
		}
	}
	return nil
}

// shredAt dispatches on the concrete WriteModel kind and shreds m's
// value at the already-complete path, implementing rules 1-10 of
// spec.md §4.D.
func shredAt(w ColumnWriter, config *WriterConfig, path ColumnPath, m WriteModel, parent reflect.Value, r, d int8) error {
	switch model := m.(type) {
	case *LeafModel:
		return shredLeaf(w, config, path, model, parent, r, d)
	case *GroupModel:
		return shredGroup(w, config, path, model, parent, r, d)
	case *ListModel:
		return shredList(w, config, path, model, parent, r, d)
	case *MapModel:
		return shredMap(w, config, path, model, parent, r, d)
	default:
		panic("carpet: unknown WriteModel implementation")
	}
}

func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	default:
		return false
	}
}

// shredLeaf implements rules 1 and 2.
func shredLeaf(w ColumnWriter, config *WriterConfig, leafPath ColumnPath, m *LeafModel, parent reflect.Value, r, d int8) error {
	v := m.get(parent)
	if isAbsent(v) {
		if !m.Nullable {
			return errRequiredFieldNull(leafPath)
		}
		return w.AppendLeaf(leafPath, NullValue(r, d), r, d)
	}
	dMax := d
	if m.Nullable {
		dMax = d + 1
	}
	cv, err := goValueToCarpetValue(v, m.Type, config)
	if err != nil {
		return &ShredError{Reason: "UnsupportedValue", Path: leafPath, Detail: err.Error()}
	}
	return w.AppendLeaf(leafPath, cv.WithLevels(r, dMax), r, dMax)
}

// shredGroup implements rules 3 and 4.
func shredGroup(w ColumnWriter, config *WriterConfig, groupPath ColumnPath, m *GroupModel, parent reflect.Value, r, d int8) error {
	v := m.get(parent)
	if m.Nullable {
		if isAbsent(v) {
			return emitAbsentLeaves(w, groupNode(m), groupPath, r, d)
		}
		d++
	}
	return shredGroupFields(w, config, groupPath, m, v, r, d)
}

func groupNode(m *GroupModel) Node {
	c := *m
	c.Nullable = false // node() without the container's own optionality, we apply it ourselves above
	return c.node()
}

// emitAbsentLeaves recurses n's leaves and emits a single null triple
// at (r, d) for each — rules 4, 7, and 8.
func emitAbsentLeaves(w ColumnWriter, n Node, path ColumnPath, r, d int8) error {
	if element, convention, ok := asList(n); ok {
		return emitAbsentLeaves(w, element, listElementPathFor(convention, path), r, d)
	}
	if key, value, ok := asMap(n); ok {
		if err := emitAbsentLeaves(w, key, path.Append("key_value").Append("key"), r, d); err != nil {
			return err
		}
		return emitAbsentLeaves(w, value, path.Append("key_value").Append("value"), r, d)
	}
	if isLeaf(n) {
		return w.AppendLeaf(path, NullValue(r, d), r, d)
	}
	for _, name := range n.ChildNames() {
		if err := emitAbsentLeaves(w, n.ChildByName(name), path.Append(name), r, d); err != nil {
			return err
		}
	}
	return nil
}

// shredList implements rules 5, 6, 7, and 8.
func shredList(w ColumnWriter, config *WriterConfig, listPath ColumnPath, m *ListModel, parent reflect.Value, r, d int8) error {
	v := m.get(parent)
	elementPath := listElementPath(m, listPath)

	dList, dEntry := containerDefLevels(d, m.Nullable, m.Convention == OneLevel)

	if isAbsent(v) {
		// rules 7 (TWO/THREE) and 8 (ONE, indistinguishable from empty)
		return emitAbsentLeaves(w, m.Element.node(), elementPath, r, dList-1)
	}
	length := v.Len()
	if length == 0 {
		if m.Convention == OneLevel {
			// ONE-LEVEL cannot represent empty distinct from null.
			return emitAbsentLeaves(w, m.Element.node(), elementPath, r, dList-1)
		}
		return emitAbsentLeaves(w, m.Element.node(), elementPath, r, dList)
	}

	rList := r + 1

	for i := 0; i < length; i++ {
		elemR := r
		if i > 0 {
			elemR = rList
		}
		// m.Element's Access chain was compiled with an identity
		// accessor at its root (see compileField's slice branch), so
		// the indexed element value itself is the correct "parent" to
		// drive it with.
		if err := shredAt(w, config, elementPath, m.Element, v.Index(i), elemR, dEntry); err != nil {
			return err
		}
	}
	return nil
}

// listElementPath returns the column-path prefix at which the list's
// element subtree is rooted, matching the path shape list.go builds
// for each convention.
func listElementPath(m *ListModel, listPath ColumnPath) ColumnPath {
	return listElementPathFor(m.Convention, listPath)
}

// listElementPathFor returns the column-path prefix at which a list's
// element subtree is rooted under convention, matching the path shape
// list.go builds for each one. Shared by shredList/shredMap's direct
// callers and emitAbsentLeaves's asList-recognized fallback.
func listElementPathFor(convention LevelConvention, listPath ColumnPath) ColumnPath {
	switch convention {
	case OneLevel:
		return listPath
	case TwoLevel:
		return listPath.Append("element")
	default:
		return listPath.Append("list").Append("element")
	}
}

// shredMap implements rule 9 (and, via SetOf, rule 10's "shredded
// exactly as LIST").
func shredMap(w ColumnWriter, config *WriterConfig, mapPath ColumnPath, m *MapModel, parent reflect.Value, r, d int8) error {
	v := m.get(parent)

	if m.IsSet {
		return shredSetAsList(w, config, mapPath, m, v, r, d)
	}

	dMap, dEntry := containerDefLevels(d, m.Nullable, false)
	kvPath := mapPath.Append("key_value")
	keyPath := kvPath.Append("key")
	valuePath := kvPath.Append("value")

	if isAbsent(v) {
		if err := emitAbsentLeaves(w, m.Key.node(), keyPath, r, dMap-1); err != nil {
			return err
		}
		return emitAbsentLeaves(w, m.Value.node(), valuePath, r, dMap-1)
	}

	keys := v.MapKeys()
	if len(keys) == 0 {
		if err := emitAbsentLeaves(w, m.Key.node(), keyPath, r, dMap); err != nil {
			return err
		}
		return emitAbsentLeaves(w, m.Value.node(), valuePath, r, dMap)
	}

	for _, key := range keys {
		if isAbsent(key) {
			return errInvalidMapKey(keyPath)
		}
	}

	rEntry := r + 1

	for i, key := range keys {
		entryR := r
		if i > 0 {
			entryR = rEntry
		}
		// m.Key/m.Value's Access chains are identity-rooted, like list
		// elements: key/mapValue themselves are the correct "parent".
		if err := shredAt(w, config, keyPath, m.Key, key, entryR, dEntry); err != nil {
			return err
		}
		mapValue := v.MapIndex(key)
		if err := shredAt(w, config, valuePath, m.Value, mapValue, entryR, dEntry); err != nil {
			return err
		}
	}
	return nil
}

// shredSetAsList shreds a SET field at the physical LIST path SetOf
// builds (rule 10: "a SET is shredded exactly as a LIST of its
// elements"), so it interoperates on disk with a plain LIST field
// addressing the same column.
func shredSetAsList(w ColumnWriter, config *WriterConfig, setPath ColumnPath, m *MapModel, v reflect.Value, r, d int8) error {
	elementPath := listElementPathFor(m.Convention, setPath)
	dList, dEntry := containerDefLevels(d, m.Nullable, m.Convention == OneLevel)

	if isAbsent(v) {
		return emitAbsentLeaves(w, m.Key.node(), elementPath, r, dList-1)
	}
	keys := v.MapKeys()
	if len(keys) == 0 {
		if m.Convention == OneLevel {
			// ONE-LEVEL cannot represent empty distinct from null.
			return emitAbsentLeaves(w, m.Key.node(), elementPath, r, dList-1)
		}
		return emitAbsentLeaves(w, m.Key.node(), elementPath, r, dList)
	}

	rEntry := r + 1

	for i, key := range keys {
		entryR := r
		if i > 0 {
			entryR = rEntry
		}
		if isAbsent(key) {
			return errInvalidMapKey(elementPath)
		}
		if err := shredAt(w, config, elementPath, m.Key, key, entryR, dEntry); err != nil {
			return err
		}
	}
	return nil
}

// goValueToCarpetValue converts a Go reflect.Value into a carpet Value
// according to t, applying decimal rescaling/time-unit truncation as
// needed. This is the write-side half of the Conversion policy
// (convert.go carries the read-side and cross-schema half).
func goValueToCarpetValue(v reflect.Value, t LogicalType, config *WriterConfig) (Value, error) {
	switch lt := t.(type) {
	case booleanType:
		return BooleanValue(v.Bool()), nil
	case intType:
		if lt.kind == Int64 {
			return Int64Value(v.Int()), nil
		}
		return Int32Value(int32(v.Int())), nil
	case floatType:
		if lt.bitWidth == 64 {
			return Float64Value(v.Float()), nil
		}
		return Float32Value(float32(v.Float())), nil
	case binaryStringType:
		return binaryStringValueFromGo(v, lt)
	case bytesType:
		return ByteArrayValue(v.Bytes()), nil
	case geoType:
		return ByteArrayValue(v.Bytes()), nil
	case uuidType:
		return uuidValueFromGo(v)
	case decimalType:
		return decimalValueFromGo(v, lt, config)
	case dateType:
		return Int32Value(int32(v.Int())), nil
	case timeType:
		return Int64Value(v.Int()), nil
	case timestampType:
		return timestampValueFromGo(v, lt)
	default:
		return Value{}, errUnsupportedValueKind(t)
	}
}

// binaryStringValueFromGo converts a Go string or []byte (STRING, ENUM,
// JSON, and BSON all share this backing) into a ByteArray Value,
// validating well-formedness for JSON using the same fast decoder the
// teacher uses for its own JSON codec paths.
func binaryStringValueFromGo(v reflect.Value, lt binaryStringType) (Value, error) {
	var raw []byte
	if v.Kind() == reflect.String {
		raw = []byte(v.String())
	} else {
		raw = v.Bytes()
	}
	if lt.variant == variantJSON && !json.Valid(raw) {
		return Value{}, &ShredError{Reason: "UnsupportedValue", Detail: "field tagged json holds a malformed JSON document"}
	}
	return ByteArrayValue(raw), nil
}

func errUnsupportedValueKind(t LogicalType) error {
	return &ShredError{Reason: "UnsupportedValue", Detail: "no converter for logical type " + t.String()}
}

func uuidValueFromGo(v reflect.Value) (Value, error) {
	if v.Type() == reflect.TypeOf(uuid.UUID{}) {
		return UUIDValue(v.Interface().(uuid.UUID)), nil
	}
	// [16]byte
	b := make([]byte, 16)
	reflect.Copy(reflect.ValueOf(b), v)
	return FixedLenByteArrayValue(b), nil
}

func decimalValueFromGo(v reflect.Value, lt decimalType, config *WriterConfig) (Value, error) {
	var d Decimal
	switch vv := v.Interface().(type) {
	case Decimal:
		d = vv
	case *big.Int:
		d = Decimal{Unscaled: vv, Scale: 0}
	default:
		switch v.Kind() {
		case reflect.Int32, reflect.Int64:
			d = Decimal{Unscaled: big.NewInt(v.Int()), Scale: 0}
		default:
			return Value{}, errUnsupportedValueKind(lt)
		}
	}
	rescaled, err := Rescale(d, lt.scale, config.DecimalRounding)
	if err != nil {
		return Value{}, err
	}
	if !FitsPrecision(rescaled, lt.precision) {
		return Value{}, &ShredError{Reason: "InvalidPrecision", Detail: "rescaled decimal exceeds target precision"}
	}
	switch lt.Kind() {
	case Int32:
		return Int32Value(int32(rescaled.Unscaled.Int64())), nil
	case Int64:
		return Int64Value(rescaled.Unscaled.Int64()), nil
	default:
		return FixedLenByteArrayValue(rescaled.Unscaled.Bytes()), nil
	}
}

func timestampValueFromGo(v reflect.Value, lt timestampType) (Value, error) {
	var nanos int64
	switch vv := v.Interface().(type) {
	case LocalDateTime:
		nanos = vv.toEpochNanos()
	default:
		t, ok := v.Interface().(interface{ UnixNano() int64 })
		if !ok {
			return Value{}, errUnsupportedValueKind(lt)
		}
		nanos = t.UnixNano()
	}
	return Int64Value(lt.unit.truncateNanos(nanos)), nil
}
