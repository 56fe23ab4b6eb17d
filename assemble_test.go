package carpet

import (
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, recordType reflect.Type, writerConfig *WriterConfig, readerConfig *ReaderConfig, records []interface{}) (*memColumnStore, *WriteRecordModel) {
	t.Helper()
	model, err := compileReflectModel(recordType, writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel: %s", err)
	}
	shredder := NewShredder(model, writerConfig)
	store := newMemColumnStore()
	for _, r := range records {
		if err := shredder.Shred(store, r); err != nil {
			t.Fatalf("Shred(%v): %s", r, err)
		}
	}
	return store, model
}

// Scenario 2 (spec.md §8): a nested optional group that is present in
// one row and absent in the next round-trips without bleeding state
// between rows.
func TestAssembleNestedOptionalGroupRoundTrip(t *testing.T) {
	type inner struct {
		City string `carpet:"city"`
	}
	type outer struct {
		Name  string `carpet:"name"`
		Home  *inner `carpet:"home"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{
		outer{Name: "a", Home: &inner{City: "nyc"}},
		outer{Name: "b", Home: nil},
	}
	store, model := roundTrip(t, reflect.TypeOf(outer{}), writerConfig, nil, records)

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())

	var got outer
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next(1): ok=%v err=%s", ok, err)
	}
	if got.Name != "a" || got.Home == nil || got.Home.City != "nyc" {
		t.Errorf("row 1: got %+v", got)
	}

	got = outer{}
	ok, err = assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next(2): ok=%v err=%s", ok, err)
	}
	if got.Name != "b" || got.Home != nil {
		t.Errorf("row 2: got %+v, expected nil Home", got)
	}

	ok, err = assembler.Next(&got)
	if err != nil || ok {
		t.Fatalf("Next(3): expected exhaustion, got ok=%v err=%s", ok, err)
	}
}

// Scenario 4 (spec.md §8): under ONE-LEVEL, an empty list and a null
// list are indistinguishable on disk and both assemble back to a nil
// Go slice.
func TestAssembleOneLevelEmptyListCollapsesToNil(t *testing.T) {
	type withList struct {
		Tags []string `carpet:"tags"`
	}

	writerConfig := DefaultWriterConfig()
	writerConfig.Apply(WithLevelConvention(OneLevel))
	records := []interface{}{
		withList{Tags: []string{}},
		withList{Tags: nil},
		withList{Tags: []string{"x", "y"}},
	}
	store, model := roundTrip(t, reflect.TypeOf(withList{}), writerConfig, nil, records)

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())
	for i := 0; i < 2; i++ {
		var got withList
		ok, err := assembler.Next(&got)
		if err != nil || !ok {
			t.Fatalf("Next(%d): ok=%v err=%s", i, ok, err)
		}
		if got.Tags != nil {
			t.Errorf("row %d: expected nil Tags, got %#v", i, got.Tags)
		}
	}
	var got withList
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next(2): ok=%v err=%s", ok, err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "x" || got.Tags[1] != "y" {
		t.Errorf("row 2: got %#v", got.Tags)
	}
}

// Scenario 5 (spec.md §8): a map with a null value, and a record whose
// map is nil, round-trip exactly.
func TestAssembleMapWithNullValueRoundTrip(t *testing.T) {
	type withMap struct {
		Scores map[string]*int32 `carpet:"scores"`
	}

	writerConfig := DefaultWriterConfig()
	one := int32(1)
	records := []interface{}{
		withMap{Scores: map[string]*int32{"a": &one, "b": nil}},
		withMap{Scores: nil},
	}
	store, model := roundTrip(t, reflect.TypeOf(withMap{}), writerConfig, nil, records)

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())

	var got withMap
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next(1): ok=%v err=%s", ok, err)
	}
	if len(got.Scores) != 2 {
		t.Fatalf("row 1: expected 2 entries, got %#v", got.Scores)
	}
	if got.Scores["a"] == nil || *got.Scores["a"] != 1 {
		t.Errorf("row 1: scores[a] = %v, want 1", got.Scores["a"])
	}
	if got.Scores["b"] != nil {
		t.Errorf("row 1: scores[b] = %v, want nil", got.Scores["b"])
	}

	got = withMap{}
	ok, err = assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next(2): ok=%v err=%s", ok, err)
	}
	if got.Scores != nil {
		t.Errorf("row 2: expected nil map, got %#v", got.Scores)
	}
}

// Scenario 9 (spec.md §8): a named set type is shredded exactly like a
// LIST, so a SET-typed write model and a plain []string read model
// addressing the same column path interoperate.
type stringSet map[string]struct{}

func (stringSet) IsSet() {}

func TestAssembleSetWrittenAsListReadAsList(t *testing.T) {
	type writeSide struct {
		Ids stringSet `carpet:"ids"`
	}
	type readSide struct {
		Ids []string `carpet:"ids"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{
		writeSide{Ids: stringSet{"a": {}, "b": {}}},
	}
	store, _ := roundTrip(t, reflect.TypeOf(writeSide{}), writerConfig, nil, records)

	readModel, err := compileReflectModel(reflect.TypeOf(readSide{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel(readSide): %s", err)
	}
	assembler := NewAssembler(readModel, store.Reader(), DefaultReaderConfig())

	var got readSide
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%s", ok, err)
	}
	if len(got.Ids) != 2 {
		t.Fatalf("expected 2 ids, got %#v", got.Ids)
	}
	seen := map[string]bool{}
	for _, id := range got.Ids {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("expected {a,b}, got %#v", got.Ids)
	}
}

// An empty-but-present THREE-LEVEL list must round-trip to a non-nil,
// zero-length slice, distinct from a genuinely absent list, per
// SPEC_FULL.md §9's empty-vs-null Design Note.
func TestAssembleThreeLevelEmptyListDistinctFromNil(t *testing.T) {
	type withList struct {
		Tags []string `carpet:"tags"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{
		withList{Tags: []string{}},
		withList{Tags: nil},
		withList{Tags: []string{"x"}},
	}
	store, model := roundTrip(t, reflect.TypeOf(withList{}), writerConfig, nil, records)

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())

	var empty withList
	ok, err := assembler.Next(&empty)
	if err != nil || !ok {
		t.Fatalf("Next(empty): ok=%v err=%s", ok, err)
	}
	if empty.Tags == nil || len(empty.Tags) != 0 {
		t.Errorf("row 0: expected non-nil empty Tags, got %#v", empty.Tags)
	}

	var null withList
	ok, err = assembler.Next(&null)
	if err != nil || !ok {
		t.Fatalf("Next(null): ok=%v err=%s", ok, err)
	}
	if null.Tags != nil {
		t.Errorf("row 1: expected nil Tags, got %#v", null.Tags)
	}

	var present withList
	ok, err = assembler.Next(&present)
	if err != nil || !ok {
		t.Fatalf("Next(present): ok=%v err=%s", ok, err)
	}
	if len(present.Tags) != 1 || present.Tags[0] != "x" {
		t.Errorf("row 2: got %#v", present.Tags)
	}
}

// An empty-but-present MAP must likewise round-trip to a non-nil, empty
// Go map distinct from nil.
func TestAssembleEmptyMapDistinctFromNil(t *testing.T) {
	type withMap struct {
		Scores map[string]int32 `carpet:"scores"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{
		withMap{Scores: map[string]int32{}},
		withMap{Scores: nil},
	}
	store, model := roundTrip(t, reflect.TypeOf(withMap{}), writerConfig, nil, records)

	assembler := NewAssembler(model, store.Reader(), DefaultReaderConfig())

	var empty withMap
	ok, err := assembler.Next(&empty)
	if err != nil || !ok {
		t.Fatalf("Next(empty): ok=%v err=%s", ok, err)
	}
	if empty.Scores == nil || len(empty.Scores) != 0 {
		t.Errorf("row 0: expected non-nil empty Scores, got %#v", empty.Scores)
	}

	var null withMap
	ok, err = assembler.Next(&null)
	if err != nil || !ok {
		t.Fatalf("Next(null): ok=%v err=%s", ok, err)
	}
	if null.Scores != nil {
		t.Errorf("row 1: expected nil Scores, got %#v", null.Scores)
	}
}

// A SET shredded under TWO-LEVEL (rule 10: "SET shredded exactly as
// LIST") must be readable through a plain []string read model over the
// same convention, the same way TestAssembleSetWrittenAsListReadAsList
// exercises the THREE-LEVEL default.
func TestAssembleSetUnderTwoLevelConvention(t *testing.T) {
	type writeSide struct {
		Ids stringSet `carpet:"ids"`
	}
	type readSide struct {
		Ids []string `carpet:"ids"`
	}

	writerConfig := DefaultWriterConfig()
	writerConfig.Apply(WithLevelConvention(TwoLevel))
	records := []interface{}{
		writeSide{Ids: stringSet{"a": {}, "b": {}}},
	}
	store, _ := roundTrip(t, reflect.TypeOf(writeSide{}), writerConfig, nil, records)

	readModel, err := compileReflectModel(reflect.TypeOf(readSide{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel(readSide): %s", err)
	}
	assembler := NewAssembler(readModel, store.Reader(), DefaultReaderConfig())

	var got readSide
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%s", ok, err)
	}
	if len(got.Ids) != 2 {
		t.Fatalf("expected 2 ids, got %#v", got.Ids)
	}
	seen := map[string]bool{}
	for _, id := range got.Ids {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("expected {a,b}, got %#v", got.Ids)
	}
}

// By default, a read model field with no matching written column is a
// MissingColumn error (spec.md §7.3); WithFailOnMissingColumn(false)
// relaxes that into a zero-filled field instead, per SPEC_FULL.md §9's
// projection/field-matching mismatch policy.
func TestAssembleFailOnMissingColumn(t *testing.T) {
	type writeSide struct {
		Name string `carpet:"name"`
	}
	type readSide struct {
		Name  string `carpet:"name"`
		Extra int32  `carpet:"extra"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{writeSide{Name: "a"}}
	store, _ := roundTrip(t, reflect.TypeOf(writeSide{}), writerConfig, nil, records)

	readModel, err := compileReflectModel(reflect.TypeOf(readSide{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel(readSide): %s", err)
	}

	strictAssembler := NewAssembler(readModel, store.Reader(), DefaultReaderConfig())
	var got readSide
	_, err = strictAssembler.Next(&got)
	assembleErr, ok := err.(*AssembleError)
	if !ok || assembleErr.Reason != "MissingColumn" {
		t.Fatalf("expected AssembleError{Reason: MissingColumn}, got %#v", err)
	}

	lenientConfig := DefaultReaderConfig()
	lenientConfig.Apply(WithFailOnMissingColumn(false))
	lenientAssembler := NewAssembler(readModel, store.Reader(), lenientConfig)
	got = readSide{}
	ok2, err := lenientAssembler.Next(&got)
	if err != nil || !ok2 {
		t.Fatalf("Next: ok=%v err=%s", ok2, err)
	}
	if got.Name != "a" || got.Extra != 0 {
		t.Errorf("got %+v, want Name=a Extra=0", got)
	}
}

// A leaf read into a model declaring a narrower INT32 than the INT64
// column it was actually written as must be rejected by default
// (FailOnNarrowing), and accepted once narrowing is explicitly allowed,
// per spec.md §4.F's widening/narrowing conversion policy.
func TestAssembleNarrowingConversionOnRead(t *testing.T) {
	type writeSide struct {
		Count int64 `carpet:"count"`
	}
	type readSide struct {
		Count int32 `carpet:"count"`
	}

	writerConfig := DefaultWriterConfig()
	records := []interface{}{writeSide{Count: 7}}
	store, _ := roundTrip(t, reflect.TypeOf(writeSide{}), writerConfig, nil, records)

	readModel, err := compileReflectModel(reflect.TypeOf(readSide{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel(readSide): %s", err)
	}

	strictAssembler := NewAssembler(readModel, store.Reader(), DefaultReaderConfig())
	var got readSide
	_, err = strictAssembler.Next(&got)
	assembleErr, ok := err.(*AssembleError)
	if !ok || assembleErr.Reason != "NarrowingConversion" {
		t.Fatalf("expected AssembleError{Reason: NarrowingConversion}, got %#v", err)
	}

	lenientConfig := DefaultReaderConfig()
	lenientConfig.Apply(WithFailOnNarrowing(false))
	lenientAssembler := NewAssembler(readModel, store.Reader(), lenientConfig)
	got = readSide{}
	ok2, err := lenientAssembler.Next(&got)
	if err != nil || !ok2 {
		t.Fatalf("Next: ok=%v err=%s", ok2, err)
	}
	if got.Count != 7 {
		t.Errorf("got Count=%d, want 7", got.Count)
	}
}

// Scenario 10 (spec.md §8): a record written with snake-case column
// naming round-trips through a reader configured to match field names
// the same way, despite the differently-cased Go identifiers on each
// side.
func TestAssembleSnakeCaseRoundTrip(t *testing.T) {
	type writeSide struct {
		UserID   int64  `carpet:"user_id"`
		FullName string
	}
	type readSide struct {
		UserID   int64
		FullName string
	}

	writerConfig := DefaultWriterConfig()
	writerConfig.Apply(WithSnakeCaseNaming())
	records := []interface{}{
		writeSide{UserID: 42, FullName: "Ada Lovelace"},
	}
	store, _ := roundTrip(t, reflect.TypeOf(writeSide{}), writerConfig, nil, records)

	readModel, err := compileReflectModel(reflect.TypeOf(readSide{}), writerConfig)
	if err != nil {
		t.Fatalf("compileReflectModel(readSide): %s", err)
	}
	readerConfig := DefaultReaderConfig()
	readerConfig.Apply(WithSnakeCaseFieldMatching())
	assembler := NewAssembler(readModel, store.Reader(), readerConfig)

	var got readSide
	ok, err := assembler.Next(&got)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%s", ok, err)
	}
	if got.UserID != 42 || got.FullName != "Ada Lovelace" {
		t.Errorf("got %+v", got)
	}
}
