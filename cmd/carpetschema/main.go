// Command carpetschema prints the column schema carpet derives from a
// Go struct type, given a small registry of example record types built
// into this binary. It plays the role the teacher's cmd/ptools plays
// for inspecting parquet files: a thin, debug-toggleable CLI shell
// around the library, not a feature of the library itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/columnar-go/carpet"
	"github.com/columnar-go/carpet/internal/trace"
)

func perrorf(format string, args ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// exampleRecords is the registry of types this inspector knows how to
// derive a schema for; a real deployment would instead resolve a type
// by package-qualified name via a build-time registration hook, but
// that glue lives outside carpet's scope (spec.md §1's CLI glue
// exclusion).
var exampleRecords = map[string]reflect.Type{}

// Register adds a named example record type, called from the registry
// file for each type this binary should be able to print.
func Register(name string, sample interface{}) {
	exampleRecords[name] = reflect.TypeOf(sample)
}

func main() {
	debug := flag.Bool("debug", false, "display debugging logs")
	naming := flag.String("naming", "identity", "column naming strategy: identity or snake_case")
	levelConvention := flag.String("list-convention", "three", "LIST encoding: one, two, or three")
	flag.Parse()

	trace.Toggle(*debug)

	if flag.NArg() != 1 {
		perrorf("usage: carpetschema [flags] <record-type-name>")
		os.Exit(2)
	}
	name := flag.Arg(0)
	recordType, ok := exampleRecords[name]
	if !ok {
		perrorf("unknown record type %q; known types: %s", name, strings.Join(knownNames(), ", "))
		os.Exit(1)
	}

	var opts []carpet.WriterOption
	if *naming == "snake_case" {
		opts = append(opts, carpet.WithSnakeCaseNaming())
	}
	switch *levelConvention {
	case "one":
		opts = append(opts, carpet.WithLevelConvention(carpet.OneLevel))
	case "two":
		opts = append(opts, carpet.WithLevelConvention(carpet.TwoLevel))
	}

	config := carpet.DefaultWriterConfig()
	config.Apply(opts...)
	if err := config.Validate(); err != nil {
		perrorf("invalid configuration: %s", err)
		os.Exit(1)
	}

	schema, err := carpet.BuildSchema(recordType, config)
	if err != nil {
		perrorf("could not build schema: %s", err)
		os.Exit(1)
	}

	trace.Format("built schema for %s with %d leaf columns", recordType, len(schema.Leaves()))

	fmt.Println(schema.String())
	fmt.Println()
	printLeafTable(schema)
}

func knownNames() []string {
	names := make([]string, 0, len(exampleRecords))
	for name := range exampleRecords {
		names = append(names, name)
	}
	return names
}

func printLeafTable(schema *carpet.Schema) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Column Path", "Max R", "Max D"})
	table.SetAutoWrapText(false)
	for _, path := range schema.Leaves() {
		table.Append([]string{
			string(path),
			fmt.Sprint(carpet.MaxRepetitionLevel(schema, path)),
			fmt.Sprint(carpet.MaxDefinitionLevel(schema, path)),
		})
	}
	table.Render()
}
