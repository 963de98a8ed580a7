// Package transform implements the column-value transformer interface and
// its built-in transformers, plus the code that applies a set of
// transformers to a streamed SQL INSERT statement or a Mongo document.
//
// Grounded file-by-file on
// _examples/original_source/replibyte/src/transformer/{mod,random,
// transient,keep_first_char,redacted,email,phone_number,credit_card,
// first_name}.rs.
package transform

import "github.com/brinkdb/snapctl/internal/column"

// Transformer is any value able to rewrite one column in one table of one
// database. The fully-qualified Key selects exactly one transformer per
// column in a Set.
type Transformer interface {
	ID() string
	Description() string
	DatabaseName() string
	TableName() string
	ColumnName() string
	Transform(column.Column) column.Column
}

// Key returns the fully-qualified "db.table.column" identity for t,
// mirroring Transformer::database_and_table_and_column_name's default
// implementation.
func Key(t Transformer) string {
	return t.DatabaseName() + "." + t.TableName() + "." + t.ColumnName()
}

// base holds the three identity fields shared by every built-in
// transformer, the way each Rust struct repeats the same three fields.
type base struct {
	database string
	table    string
	col      string
}

func (b base) DatabaseName() string { return b.database }
func (b base) TableName() string    { return b.table }
func (b base) ColumnName() string   { return b.col }

// Set resolves transformers by fully-qualified column key and applies them
// to a stream of columns.
type Set struct {
	byKey map[string]Transformer
}

// NewSet indexes transformers by Key, last one wins on a collision, the way
// a map literal built from a config file naturally would.
func NewSet(transformers ...Transformer) *Set {
	s := &Set{byKey: make(map[string]Transformer, len(transformers))}
	for _, t := range transformers {
		s.byKey[Key(t)] = t
	}
	return s
}

// Lookup finds the transformer registered for db.table.column, if any.
func (s *Set) Lookup(database, table, col string) (Transformer, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.byKey[database+"."+table+"."+col]
	return t, ok
}

// Apply runs the registered transformer for the column, or returns c
// unchanged when none is registered.
func (s *Set) Apply(database, table string, c column.Column) column.Column {
	t, ok := s.Lookup(database, table, c.Name)
	if !ok {
		return c
	}
	return t.Transform(c)
}
