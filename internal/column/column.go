// Package column defines the tagged column-value type that flows through
// the transformer pipeline, grounded on the Column variants referenced
// throughout the source transformer implementations (types.rs and the
// individual transformer files, which pattern-match on NumberValue /
// FloatNumberValue / StringValue / CharValue / None).
package column

// Kind discriminates the variant a Column currently holds.
type Kind int

const (
	NoneValue Kind = iota
	StringValue
	NumberValue
	FloatNumberValue
	CharValue
)

// Column is a named value of one of the above kinds. Only the field
// matching Kind is meaningful.
type Column struct {
	Name string
	Kind Kind

	Str   string
	Int   int64
	Float float64
	Char  rune
}

// String builds a StringValue column.
func String(name, value string) Column {
	return Column{Name: name, Kind: StringValue, Str: value}
}

// Number builds a NumberValue column.
func Number(name string, value int64) Column {
	return Column{Name: name, Kind: NumberValue, Int: value}
}

// Float builds a FloatNumberValue column.
func Float(name string, value float64) Column {
	return Column{Name: name, Kind: FloatNumberValue, Float: value}
}

// CharOf builds a CharValue column.
func CharOf(name string, value rune) Column {
	return Column{Name: name, Kind: CharValue, Char: value}
}

// None builds a NoneValue column (SQL NULL, or an absent value).
func None(name string) Column {
	return Column{Name: name, Kind: NoneValue}
}
