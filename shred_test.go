package carpet

import (
	"reflect"
	"testing"
)

// Scenario 1 (spec.md §8): primitive round-trip through a required
// INT32 column.
func TestShredPrimitiveRoundTrip(t *testing.T) {
	type valueRecord struct {
		Value int32 `carpet:"value"`
	}

	model, err := compileReflectModel(reflect.TypeOf(valueRecord{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	for _, v := range []int32{1, 2} {
		if err := shredder.Shred(store, valueRecord{Value: v}); err != nil {
			t.Fatalf("Shred(%d): %s", v, err)
		}
	}

	got := store.columns["value"]
	if len(got) != 2 {
		t.Fatalf("expected 2 triples, got %d", len(got))
	}
	for i, want := range []int32{1, 2} {
		if got[i].v.Int32() != want || got[i].r != 0 || got[i].d != 0 {
			t.Errorf("triple %d: got (%v,%d,%d), want (%d,0,0)", i, got[i].v.Int32(), got[i].r, got[i].d, want)
		}
	}
}

// Scenario 3 (spec.md §8): THREE-LEVEL list with a null element in the
// middle emits exactly the triples the spec's worked example names.
func TestShredThreeLevelListWithNullElement(t *testing.T) {
	type listRecord struct {
		Name string `carpet:"name"`
		Ids  []*int32 `carpet:"ids"`
	}

	model, err := compileReflectModel(reflect.TypeOf(listRecord{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	one, three := int32(1), int32(3)
	record := listRecord{Name: "baz", Ids: []*int32{&one, nil, &three}}
	if err := shredder.Shred(store, record); err != nil {
		t.Fatalf("Shred: %s", err)
	}

	got := store.columns["ids.list.element"]
	if len(got) != 3 {
		t.Fatalf("expected 3 triples at ids.list.element, got %d", len(got))
	}
	type want struct {
		null bool
		v    int32
		r, d int8
	}
	wants := []want{
		{v: 1, r: 0, d: 3},
		{null: true, r: 1, d: 2},
		{v: 3, r: 1, d: 3},
	}
	for i, w := range wants {
		tr := got[i]
		if tr.r != w.r || tr.d != w.d {
			t.Errorf("triple %d: levels (%d,%d), want (%d,%d)", i, tr.r, tr.d, w.r, w.d)
		}
		if w.null {
			if !tr.v.IsNull() {
				t.Errorf("triple %d: expected null", i)
			}
			continue
		}
		if tr.v.IsNull() || tr.v.Int32() != w.v {
			t.Errorf("triple %d: value %v, want %d", i, tr.v, w.v)
		}
	}
}

// Scenario 7 (spec.md §8): a null MAP key must raise InvalidRecord at
// write time. Built with an explicit write model (rather than the
// reflective path) since Go string keys cannot themselves be nil;
// carpet.Value-level null keys are exercised through a nilable Go key
// type (interface{}) instead, which is the Go analogue of a nullable
// map key in a language where all keys are nullable references.
func TestShredMapNullKeyFails(t *testing.T) {
	type holder struct {
		Ids map[interface{}]int32
	}

	identity := func(v reflect.Value) reflect.Value { return v }
	root := &GroupModel{
		Name: "R",
		Fields: []WriteModel{
			&MapModel{
				Name:     "ids",
				Nullable: true,
				Key:      &LeafModel{Name: "key", Type: STRING, Nullable: false, Access: identity},
				Value:    &LeafModel{Name: "value", Type: INT32, Nullable: true, Access: identity},
				Access:   func(parent reflect.Value) reflect.Value { return parent.Field(0) },
			},
		},
	}
	model := &WriteRecordModel{root: root, node: root.node()}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	err := shredder.Shred(store, holder{Ids: map[interface{}]int32{nil: 1, "a": 2}})
	if err == nil {
		t.Fatal("expected an error for a null map key")
	}
	shredErr, ok := err.(*ShredError)
	if !ok || shredErr.Reason != "InvalidRecord" {
		t.Fatalf("expected ShredError{Reason: InvalidRecord}, got %#v", err)
	}
}

// Scenario 8 (spec.md §8): two consecutive repeated levels with no
// intervening group cannot be represented under ONE-LEVEL, and schema
// construction must fail with ConsecutiveLists.
func TestBuildSchemaConsecutiveListsUnderOneLevelFails(t *testing.T) {
	type nested struct {
		Values [][]int32 `carpet:"values"`
	}
	config := DefaultWriterConfig()
	config.Apply(WithLevelConvention(OneLevel))

	_, err := BuildSchema(reflect.TypeOf(nested{}), config)
	if err == nil {
		t.Fatal("expected ConsecutiveLists schema error")
	}
	schemaErr, ok := err.(*SchemaError)
	if !ok || schemaErr.Reason != "ConsecutiveLists" {
		t.Fatalf("expected SchemaError{Reason: ConsecutiveLists}, got %#v", err)
	}
}

// A `not-null`-tagged LIST is REQUIRED rather than OPTIONAL at its own
// group level, per Invariant 3: its own presence must not consume an
// extra definition level beyond what a nullable list of the same shape
// would use for its first element.
func TestShredNotNullListDefinitionLevels(t *testing.T) {
	type listRecord struct {
		Ids []int32 `carpet:"ids,not-null"`
	}

	model, err := compileReflectModel(reflect.TypeOf(listRecord{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	if err := shredder.Shred(store, listRecord{Ids: []int32{7, 8}}); err != nil {
		t.Fatalf("Shred: %s", err)
	}

	got := store.columns["ids.list.element"]
	if len(got) != 2 {
		t.Fatalf("expected 2 triples, got %d", len(got))
	}
	// a not-null list's own container level is d=0 (never null), so its
	// required int32 elements land at d=1 (the repeated group list), one
	// level below the d=2 a nullable list of int32 would use; the
	// empty case below likewise sits one level lower, at d=0.
	for i, tr := range got {
		if tr.d != 1 || tr.r != boolToInt8(i > 0) {
			t.Errorf("triple %d: got (r=%d,d=%d), want (r=%d,d=1)", i, tr.r, tr.d, boolToInt8(i > 0))
		}
	}

	store2 := newMemColumnStore()
	if err := shredder.Shred(store2, listRecord{Ids: []int32{}}); err != nil {
		t.Fatalf("Shred(empty): %s", err)
	}
	empty := store2.columns["ids.list.element"]
	if len(empty) != 1 {
		t.Fatalf("expected 1 triple for the empty not-null list, got %d", len(empty))
	}
	if !empty[0].v.IsNull() || empty[0].d != 0 || empty[0].r != 0 {
		t.Errorf("empty not-null list: got (d=%d,r=%d), want (d=0,r=0) null triple", empty[0].d, empty[0].r)
	}
}

func boolToInt8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}

// Same not-null gating, for a MAP container: its own presence must not
// inflate the key/value definition levels beyond what a nullable map's
// entries would also use.
func TestShredNotNullMapDefinitionLevels(t *testing.T) {
	type mapRecord struct {
		Scores map[string]int32 `carpet:"scores,not-null"`
	}

	model, err := compileReflectModel(reflect.TypeOf(mapRecord{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	if err := shredder.Shred(store, mapRecord{Scores: map[string]int32{"a": 1}}); err != nil {
		t.Fatalf("Shred: %s", err)
	}
	got := store.columns["scores.key_value.key"]
	if len(got) != 1 || got[0].d != 1 || got[0].r != 0 {
		t.Fatalf("got (r=%d,d=%d), want (r=0,d=1)", got[0].r, got[0].d)
	}

	store2 := newMemColumnStore()
	if err := shredder.Shred(store2, mapRecord{Scores: map[string]int32{}}); err != nil {
		t.Fatalf("Shred(empty): %s", err)
	}
	empty := store2.columns["scores.key_value.key"]
	if len(empty) != 1 || !empty[0].v.IsNull() || empty[0].d != 0 || empty[0].r != 0 {
		t.Fatalf("empty not-null map: got (d=%d,r=%d,null=%v), want (d=0,r=0,null=true)", empty[0].d, empty[0].r, empty[0].v.IsNull())
	}
}

// A field tagged `json` must hold a well-formed JSON document; a
// malformed payload is rejected at shred time rather than silently
// stored.
func TestShredJSONValidation(t *testing.T) {
	type document struct {
		Payload string `carpet:"payload,json"`
	}

	model, err := compileReflectModel(reflect.TypeOf(document{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, DefaultWriterConfig())
	store := newMemColumnStore()

	if err := shredder.Shred(store, document{Payload: `{"ok":true}`}); err != nil {
		t.Fatalf("Shred(valid JSON): %s", err)
	}

	err = shredder.Shred(store, document{Payload: `{not json`})
	if err == nil {
		t.Fatal("expected an error shredding a malformed JSON payload")
	}
	shredErr, ok := err.(*ShredError)
	if !ok || shredErr.Reason != "UnsupportedValue" {
		t.Fatalf("expected ShredError{Reason: UnsupportedValue}, got %#v", err)
	}
}
