package transform

import (
	"strings"

	"github.com/brinkdb/snapctl/internal/column"
	"github.com/brinkdb/snapctl/internal/sqlstmt"
	"github.com/brinkdb/snapctl/internal/token"
)

// SkipSet is a set of fully-qualified "db.table.column" keys whose columns
// are removed from the INSERT entirely during re-serialization, distinct
// from a transient transformer which keeps the column but leaves the value
// unchanged.
type SkipSet map[string]struct{}

// Skips reports whether db.table.column is in the skip set.
func (s SkipSet) Skips(database, table, col string) bool {
	if s == nil {
		return false
	}
	_, ok := s[database+"."+table+"."+col]
	return ok
}

// ApplyToInsert rewrites the INSERT INTO statement represented by tokens,
// running every registered transformer over its columns and dropping any
// column named in skip. database/table are the already-parsed identifiers
// feeding the transformer lookup. Returns "" and false if tokens do not
// form an INSERT INTO, or if its column and value counts differ or are
// zero.
func ApplyToInsert(tokens []token.Token, database, table string, set *Set, skip SkipSet) (string, bool) {
	if _, ok := sqlstmt.IsInsertInto(tokens); !ok {
		return "", false
	}

	names := sqlstmt.ColumnNamesFromInsert(tokens)
	values := sqlstmt.ColumnValuesFromInsert(tokens)
	if len(names) != len(values) || len(names) == 0 {
		return "", false
	}

	var outNames []string
	var outValues []string

	for i, name := range names {
		if skip.Skips(database, table, name) {
			continue
		}

		col := tokenToColumn(name, values[i])
		col = set.Apply(database, table, col)

		outNames = append(outNames, name)
		outValues = append(outValues, columnToSQL(col))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	if database != "" {
		b.WriteString(database)
		b.WriteString(".")
	}
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(outNames, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(outValues, ", "))
	b.WriteString(");")

	return b.String(), true
}

func tokenToColumn(name string, tok token.Token) column.Column {
	switch tok.Kind {
	case token.SingleQuotedString, token.NationalStringLiteral, token.HexStringLiteral:
		return column.String(name, strings.ReplaceAll(tok.Str, "''", "'"))
	case token.Number:
		if strings.ContainsAny(tok.Text, ".") {
			f, err := parseFloat(tok.Text)
			if err == nil {
				return column.Float(name, f)
			}
		}
		n, err := parseInt(tok.Text)
		if err == nil {
			return column.Number(name, n)
		}
		return column.String(name, tok.Text)
	case token.Word:
		if tok.KeywordID == token.Null {
			return column.None(name)
		}
		return column.String(name, tok.Value)
	default:
		return column.None(name)
	}
}

func columnToSQL(c column.Column) string {
	switch c.Kind {
	case column.StringValue:
		return "'" + strings.ReplaceAll(c.Str, "'", "''") + "'"
	case column.NumberValue:
		return sqlstmt.FormatNumber(c.Int)
	case column.FloatNumberValue:
		return formatFloat(c.Float)
	case column.CharValue:
		return "'" + string(c.Char) + "'"
	default:
		return "NULL"
	}
}
