package carpet

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// structTag is the parsed form of a `carpet:"..."` struct tag, modeled
// on the teacher's forEachStructTagOption comma-separated tag grammar
// in column_buffer_go18.go, generalized from a fixed option set to the
// spec.md §3.1 annotation table.
type structTag struct {
	name      string
	optional  bool
	notNull   bool
	enum      bool
	jsonTag   bool
	bson      bool
	str       bool // "string" on enum: project to STRING
	precision int
	scale     int
	hasPrec   bool
	rounding  RoundingMode
	hasRound  bool
	geometry  bool
	geography bool
	crs       string
	edges     string
	alias     string
	timeUnit  TimeUnit
	hasUnit   bool
	local     bool
}

func parseStructTag(raw string) structTag {
	var t structTag
	if raw == "" {
		return t
	}
	parts := strings.Split(raw, ",")
	if len(parts) > 0 && !strings.Contains(parts[0], "=") {
		t.name = parts[0]
		parts = parts[1:]
	}
	for _, opt := range parts {
		opt = strings.TrimSpace(opt)
		key, value, hasValue := opt, "", false
		if idx := strings.IndexByte(opt, '='); idx >= 0 {
			key, value, hasValue = opt[:idx], opt[idx+1:], true
		}
		switch key {
		case "optional":
			t.optional = true
		case "not-null":
			t.notNull = true
		case "enum":
			t.enum = true
		case "json":
			t.jsonTag = true
		case "bson":
			t.bson = true
		case "string":
			t.str = true
		case "precision":
			if hasValue {
				t.precision, _ = strconv.Atoi(value)
				t.hasPrec = true
			}
		case "scale":
			if hasValue {
				t.scale, _ = strconv.Atoi(value)
			}
		case "rounding":
			t.hasRound = true
			t.rounding = parseRoundingMode(value)
		case "geometry":
			t.geometry = true
			t.crs = value
		case "geography":
			t.geography = true
			if hasValue {
				fields := strings.SplitN(value, ";", 2)
				t.crs = fields[0]
				if len(fields) > 1 {
					t.edges = fields[1]
				}
			}
		case "alias":
			t.alias = value
		case "time_unit":
			t.hasUnit = true
			t.timeUnit = parseTimeUnit(value)
		case "local":
			t.local = true
		}
	}
	return t
}

func parseRoundingMode(s string) RoundingMode {
	switch s {
	case "half_up":
		return RoundHalfUp
	case "down":
		return RoundDown
	case "up":
		return RoundUp
	case "floor":
		return RoundFloor
	case "ceiling":
		return RoundCeiling
	default:
		return RoundUnnecessary
	}
}

func parseTimeUnit(s string) TimeUnit {
	switch s {
	case "micros":
		return Microsecond
	case "nanos":
		return Nanosecond
	default:
		return Millisecond
	}
}

var (
	bigIntType        = reflect.TypeOf((*big.Int)(nil))
	decimalType_      = reflect.TypeOf(Decimal{})
	timeTimeType      = reflect.TypeOf(time.Time{})
	localDateTimeType = reflect.TypeOf(LocalDateTime{})
	uuidUUIDType      = reflect.TypeOf(uuid.UUID{})
	byte16ArrayType   = reflect.ArrayOf(16, reflect.TypeOf(byte(0)))
)

// compileReflectModel compiles recordType (a struct or pointer-to-struct
// Go type) into a WriteRecordModel, the reflective half of spec.md
// §4.C/§4.B. compileStack guards against CyclicType (spec.md §4.B
// Failure modes / Invariant 6).
func compileReflectModel(recordType reflect.Type, config *WriterConfig) (*WriteRecordModel, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	for recordType.Kind() == reflect.Ptr {
		recordType = recordType.Elem()
	}
	if recordType.Kind() != reflect.Struct {
		return nil, &SchemaError{Reason: "UnsupportedLogicalType", Type: recordType.String(), Detail: "root record type must be a struct"}
	}
	stack := map[reflect.Type]bool{}
	root, err := compileStruct(recordType, config, stack, func(v reflect.Value) reflect.Value { return v })
	if err != nil {
		return nil, err
	}
	root.Name = recordType.Name()
	return &WriteRecordModel{root: root, node: root.node()}, nil
}

func compileStruct(t reflect.Type, config *WriterConfig, stack map[reflect.Type]bool, self accessor) (*GroupModel, error) {
	if stack[t] {
		return nil, &SchemaError{Reason: "CyclicType", Type: t.String(), Detail: "record type refers to itself"}
	}
	stack[t] = true
	defer delete(stack, t)

	g := &GroupModel{Name: t.Name(), Access: self}
	naming := config.ColumnNaming.strategy()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tag := parseStructTag(f.Tag.Get("carpet"))
		name := naming.ColumnName(f.Name)
		if tag.name != "" {
			name = tag.name
		}
		if tag.alias != "" {
			name = tag.alias
		}

		index := i
		fieldAccess := func(parent reflect.Value) reflect.Value {
			return parent.Field(index)
		}

		model, err := compileField(name, f.Type, tag, config, stack, fieldAccess)
		if err != nil {
			return nil, err
		}
		g.Fields = append(g.Fields, model)
	}
	return g, nil
}

// compileField compiles one struct field (or list element, or map
// key/value) into a WriteModel, dispatching on Go kind per
// SPEC_FULL.md §3.1's Go type mapping table.
func compileField(name string, t reflect.Type, tag structTag, config *WriterConfig, stack map[reflect.Type]bool, access accessor) (WriteModel, error) {
	nullable := tag.optional && !tag.notNull

	if t.Kind() == reflect.Ptr && t != bigIntType {
		elem := t.Elem()
		inner, err := compileField(name, elem, tag, config, stack, func(parent reflect.Value) reflect.Value {
			v := access(parent)
			if v.IsNil() {
				return reflect.Value{}
			}
			return v.Elem()
		})
		if err != nil {
			return nil, err
		}
		setNullable(inner, true)
		return inner, nil
	}

	switch {
	case t == decimalType_ || (tag.hasPrec && (t.Kind() == reflect.Int32 || t.Kind() == reflect.Int64 || t == bigIntType)):
		precision, scale := config.DefaultDecimal.Precision, config.DefaultDecimal.Scale
		if tag.hasPrec {
			precision = tag.precision
			scale = tag.scale
		}
		if precision < 1 || precision > 38 || scale < 0 || scale > precision {
			return nil, &SchemaError{Reason: "DecimalOutOfRange", Type: t.String(), Detail: "DECIMAL(" + strconv.Itoa(precision) + "," + strconv.Itoa(scale) + ") needs 1 <= precision <= 38 and 0 <= scale <= precision"}
		}
		return &LeafModel{Name: name, Type: DECIMAL(precision, scale), Nullable: nullable, Access: access}, nil

	case t == uuidUUIDType || t == byte16ArrayType:
		return &LeafModel{Name: name, Type: UUID, Nullable: nullable, Access: access}, nil

	case t == timeTimeType:
		unit := config.DefaultTimeUnit
		if tag.hasUnit {
			unit = tag.timeUnit
		}
		return &LeafModel{Name: name, Type: TIMESTAMP(unit, true), Nullable: nullable, Access: access}, nil

	case t == localDateTimeType:
		unit := config.DefaultTimeUnit
		if tag.hasUnit {
			unit = tag.timeUnit
		}
		return &LeafModel{Name: name, Type: TIMESTAMP(unit, false), Nullable: nullable, Access: access}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return &LeafModel{Name: name, Type: BOOLEAN, Nullable: nullable, Access: access}, nil

	case reflect.Int8:
		return &LeafModel{Name: name, Type: INT8, Nullable: nullable, Access: access}, nil
	case reflect.Int16:
		return &LeafModel{Name: name, Type: INT16, Nullable: nullable, Access: access}, nil
	case reflect.Int32:
		return &LeafModel{Name: name, Type: INT32, Nullable: nullable, Access: access}, nil
	case reflect.Int64, reflect.Int:
		return &LeafModel{Name: name, Type: INT64, Nullable: nullable, Access: access}, nil

	case reflect.Float32:
		return &LeafModel{Name: name, Type: FLOAT32, Nullable: nullable, Access: access}, nil
	case reflect.Float64:
		return &LeafModel{Name: name, Type: FLOAT64, Nullable: nullable, Access: access}, nil

	case reflect.String:
		return &LeafModel{Name: name, Type: stringLogicalType(tag), Nullable: nullable, Access: access}, nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &LeafModel{Name: name, Type: binaryLogicalType(tag), Nullable: nullable, Access: access}, nil
		}
		elemType := t.Elem()
		if config.LevelConvention == OneLevel && elemType.Kind() == reflect.Slice && elemType.Elem().Kind() != reflect.Uint8 {
			return nil, &SchemaError{Reason: "ConsecutiveLists", Type: t.String(), Detail: "ONE-LEVEL cannot represent a list of lists"}
		}
		elemNullable := elemType.Kind() == reflect.Ptr || elemType.Kind() == reflect.Interface
		elemAccess := func(ev reflect.Value) reflect.Value { return ev }
		elemModel, err := compileField("element", elemType, structTag{optional: elemNullable}, config, stack, elemAccess)
		if err != nil {
			return nil, err
		}
		return &ListModel{
			Name:       name,
			Nullable:   !tag.notNull, // Invariant 3: containers are nullable by default
			Convention: config.LevelConvention,
			Element:    elemModel,
			Access:     access,
		}, nil

	case reflect.Array:
		// only byte16ArrayType (UUID) reaches here; other fixed arrays
		// are an open question not exercised by this reflective path.
		return nil, &SchemaError{Reason: "UnsupportedLogicalType", Type: t.String(), Detail: "unsupported fixed-size array"}

	case reflect.Map:
		keyAccess := func(ev reflect.Value) reflect.Value { return ev }
		keyModel, err := compileField("key", t.Key(), structTag{}, config, stack, keyAccess)
		if err != nil {
			return nil, err
		}
		// Invariant 2: MAP keys are required, even if t.Key() is itself a
		// pointer type — compileField's generic Ptr branch above has no
		// way to know it was called for a key, so it would otherwise mark
		// keyModel Nullable.
		setNullable(keyModel, false)
		if isSetType(t) {
			return &MapModel{
				Name: name, Nullable: !tag.notNull, IsSet: true,
				Convention: config.LevelConvention,
				Key:        keyModel, Access: access,
			}, nil
		}
		valueAccess := func(ev reflect.Value) reflect.Value { return ev }
		valueModel, err := compileField("value", t.Elem(), structTag{optional: !tag.notNull}, config, stack, valueAccess)
		if err != nil {
			return nil, err
		}
		return &MapModel{
			Name: name, Nullable: !tag.notNull, ValueNullable: !tag.notNull,
			Key: keyModel, Value: valueModel, Access: access,
		}, nil

	case reflect.Struct:
		g, err := compileStruct(t, config, stack, access)
		if err != nil {
			return nil, err
		}
		g.Name = name
		g.Nullable = nullable
		return g, nil

	case reflect.Interface:
		return nil, &SchemaError{Reason: "OpenGeneric", Type: t.String(), Detail: "interface-typed field has no concrete leaf type"}

	default:
		return nil, &SchemaError{Reason: "UnsupportedLogicalType", Type: t.String(), Detail: "no Go type mapping for this kind"}
	}
}

func stringLogicalType(tag structTag) LogicalType {
	switch {
	case tag.jsonTag:
		return JSON
	case tag.bson:
		return BSON
	case tag.enum:
		return ENUM
	default:
		return STRING
	}
}

func binaryLogicalType(tag structTag) LogicalType {
	switch {
	case tag.jsonTag:
		return JSON
	case tag.bson:
		return BSON
	case tag.enum:
		return ENUM
	case tag.geometry:
		return GEOMETRY(tag.crs)
	case tag.geography:
		return GEOGRAPHY(tag.crs, tag.edges)
	default:
		return BYTES
	}
}

func setNullable(m WriteModel, nullable bool) {
	switch t := m.(type) {
	case *LeafModel:
		t.Nullable = nullable
	case *GroupModel:
		t.Nullable = nullable
	case *ListModel:
		t.Nullable = nullable
	case *MapModel:
		t.Nullable = nullable
	}
}
