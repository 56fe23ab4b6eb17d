package carpet

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// TestSchemaStringPrettyPrint checks BuildSchema's pretty-printed form
// against the canonical textual layout from spec.md §6, using the same
// myers/gotextdiff unified-diff idiom the teacher uses in writer_test.go
// to report a golden-text mismatch.
func TestSchemaStringPrettyPrint(t *testing.T) {
	type person struct {
		Name string `carpet:"name"`
		Age  *int32 `carpet:"age"`
	}

	schema, err := BuildSchema(reflect.TypeOf(person{}), DefaultWriterConfig())
	if err != nil {
		t.Fatalf("BuildSchema: %s", err)
	}

	want := `message person {
  required byte_array name (STRING);
  optional int32 age (INT32);
}`

	got := schema.String()
	if got != want {
		edits := myers.ComputeEdits(span.URIFromPath("want.txt"), want, got)
		diff := fmt.Sprint(gotextdiff.ToUnified("want.txt", "got.txt", want, edits))
		t.Errorf("schema mismatch:\n%s", diff)
	}
}

// TestSchemaStringListConventions checks that a LIST field's pretty-
// printed shape tracks WriterConfig.LevelConvention instead of always
// emitting the THREE-LEVEL textual form, per spec.md §6.
func TestSchemaStringListConventions(t *testing.T) {
	type withTags struct {
		Tags []string `carpet:"tags"`
	}

	cases := []struct {
		name       string
		convention LevelConvention
		want       string
	}{
		{
			name:       "ThreeLevel",
			convention: ThreeLevel,
			want: `message withTags {
  optional group tags (LIST) {
    repeated group list {
      required byte_array element (STRING);
    }
  }
}`,
		},
		{
			name:       "TwoLevel",
			convention: TwoLevel,
			want: `message withTags {
  optional group tags (LIST) {
    repeated byte_array element (STRING);
  }
}`,
		},
		{
			name:       "OneLevel",
			convention: OneLevel,
			want: `message withTags {
  repeated byte_array tags (STRING);
}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultWriterConfig()
			config.LevelConvention = tc.convention
			schema, err := BuildSchema(reflect.TypeOf(withTags{}), config)
			if err != nil {
				t.Fatalf("BuildSchema: %s", err)
			}
			got := schema.String()
			if got != tc.want {
				edits := myers.ComputeEdits(span.URIFromPath("want.txt"), tc.want, got)
				diff := fmt.Sprint(gotextdiff.ToUnified("want.txt", "got.txt", tc.want, edits))
				t.Errorf("schema mismatch:\n%s", diff)
			}
		})
	}
}
