package carpet

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

const (
	DefaultLevelConvention   = ThreeLevel
	DefaultColumnNaming      = identityNamingTag
	DefaultTimeUnit          = Millisecond
	DefaultDecimalPrecision  = 18
	DefaultDecimalScale      = 2
	DefaultDecimalRounding   = RoundUnnecessary
	DefaultFieldMatching     = identityNamingTag
	DefaultFailOnMissingCol  = true
	DefaultFailOnNullPrim    = true
	DefaultFailOnNarrowing   = true
)

type namingTag int8

const (
	identityNamingTag namingTag = iota
	snakeCaseNamingTag
)

func (t namingTag) strategy() NamingStrategy {
	if t == snakeCaseNamingTag {
		return SnakeCaseNaming{}
	}
	return IdentityNaming{}
}

// WriterConfig carries the closed set of writer-side schema-derivation
// options from spec.md §6, following the teacher's FileConfig/
// WriterConfig struct-plus-functional-options pattern in config.go.
type WriterConfig struct {
	LevelConvention LevelConvention
	ColumnNaming    namingTag
	DefaultTimeUnit TimeUnit
	DefaultDecimal  struct{ Precision, Scale int }
	DecimalRounding RoundingMode
	ExtraMetadata   map[string]string
}

// DefaultWriterConfig returns a new WriterConfig initialized with the
// default writer configuration from spec.md §6.
func DefaultWriterConfig() *WriterConfig {
	c := &WriterConfig{
		LevelConvention: DefaultLevelConvention,
		ColumnNaming:    DefaultColumnNaming,
		DefaultTimeUnit: DefaultTimeUnit,
		DecimalRounding: DefaultDecimalRounding,
	}
	c.DefaultDecimal.Precision = DefaultDecimalPrecision
	c.DefaultDecimal.Scale = DefaultDecimalScale
	return c
}

// WriterOption configures a WriterConfig, mirroring the teacher's
// WriterOption closure-interface pattern in config.go.
type WriterOption interface {
	ConfigureWriter(*WriterConfig)
}

type writerOption func(*WriterConfig)

func (f writerOption) ConfigureWriter(c *WriterConfig) { f(c) }

// Apply applies options to c in order.
func (c *WriterConfig) Apply(options ...WriterOption) {
	for _, opt := range options {
		opt.ConfigureWriter(c)
	}
}

// Clone returns a deep copy of c, using copystructure the same way the
// teacher leans on reflection-based struct copying for its config
// types, so that concurrent writers built from one base config never
// alias its ExtraMetadata map.
func (c *WriterConfig) Clone() *WriterConfig {
	copied, err := copystructure.Copy(c)
	if err != nil {
		// WriterConfig holds only plain data; copystructure cannot fail
		// on it short of a bug in the option constructors below.
		panic(fmt.Sprintf("carpet: WriterConfig.Clone: %s", err))
	}
	return copied.(*WriterConfig)
}

// Validate returns a non-nil *SchemaError if c's values violate
// Invariant 4 (DECIMAL precision/scale bounds).
func (c *WriterConfig) Validate() error {
	p, s := c.DefaultDecimal.Precision, c.DefaultDecimal.Scale
	if p < 1 || p > 38 {
		return &SchemaError{Reason: "DecimalOutOfRange", Detail: fmt.Sprintf("default decimal precision %d out of range [1,38]", p)}
	}
	if s < 0 || s > p {
		return &SchemaError{Reason: "DecimalOutOfRange", Detail: fmt.Sprintf("default decimal scale %d out of range [0,%d]", s, p)}
	}
	return nil
}

func WithLevelConvention(lc LevelConvention) WriterOption {
	return writerOption(func(c *WriterConfig) { c.LevelConvention = lc })
}

func WithSnakeCaseNaming() WriterOption {
	return writerOption(func(c *WriterConfig) { c.ColumnNaming = snakeCaseNamingTag })
}

func WithDefaultTimeUnit(u TimeUnit) WriterOption {
	return writerOption(func(c *WriterConfig) { c.DefaultTimeUnit = u })
}

func WithDefaultDecimal(precision, scale int) WriterOption {
	return writerOption(func(c *WriterConfig) {
		c.DefaultDecimal.Precision = precision
		c.DefaultDecimal.Scale = scale
	})
}

func WithDecimalRounding(mode RoundingMode) WriterOption {
	return writerOption(func(c *WriterConfig) { c.DecimalRounding = mode })
}

func WithExtraMetadata(kv map[string]string) WriterOption {
	return writerOption(func(c *WriterConfig) {
		c.ExtraMetadata = kv
	})
}

// ReaderConfig carries the closed set of reader-side options from
// spec.md §6.
type ReaderConfig struct {
	FieldMatching            namingTag
	FailOnMissingColumn      bool
	FailOnNullForPrimitives  bool
	FailOnNarrowing          bool
}

// DefaultReaderConfig returns a new ReaderConfig initialized with the
// default reader configuration.
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		FieldMatching:           DefaultFieldMatching,
		FailOnMissingColumn:     DefaultFailOnMissingCol,
		FailOnNullForPrimitives: DefaultFailOnNullPrim,
		FailOnNarrowing:         DefaultFailOnNarrowing,
	}
}

// ReaderOption configures a ReaderConfig.
type ReaderOption interface {
	ConfigureReader(*ReaderConfig)
}

type readerOption func(*ReaderConfig)

func (f readerOption) ConfigureReader(c *ReaderConfig) { f(c) }

func (c *ReaderConfig) Apply(options ...ReaderOption) {
	for _, opt := range options {
		opt.ConfigureReader(c)
	}
}

func (c *ReaderConfig) Clone() *ReaderConfig {
	copied, err := copystructure.Copy(c)
	if err != nil {
		panic(fmt.Sprintf("carpet: ReaderConfig.Clone: %s", err))
	}
	return copied.(*ReaderConfig)
}

func WithSnakeCaseFieldMatching() ReaderOption {
	return readerOption(func(c *ReaderConfig) { c.FieldMatching = snakeCaseNamingTag })
}

func WithFailOnMissingColumn(fail bool) ReaderOption {
	return readerOption(func(c *ReaderConfig) { c.FailOnMissingColumn = fail })
}

func WithFailOnNullForPrimitives(fail bool) ReaderOption {
	return readerOption(func(c *ReaderConfig) { c.FailOnNullForPrimitives = fail })
}

func WithFailOnNarrowing(fail bool) ReaderOption {
	return readerOption(func(c *ReaderConfig) { c.FailOnNarrowing = fail })
}

var (
	_ WriterOption = writerOption(nil)
	_ ReaderOption = readerOption(nil)
)
