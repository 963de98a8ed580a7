package sqlstmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkdb/snapctl/internal/token"
)

func tokenize(t *testing.T, stmt string) []token.Token {
	t.Helper()
	tokens, err := token.New(stmt).Tokenize()
	require.NoError(t, err)
	return tokens
}

func TestMatchKeywordAtOutOfRangeIsFalse(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO t VALUES (1);")
	assert.False(t, MatchKeywordAt(tokens, -1, token.Insert))
	assert.False(t, MatchKeywordAt(tokens, len(tokens), token.Insert))
	assert.True(t, MatchKeywordAt(tokens, 0, token.Insert))
}

func TestWordAtReturnsFalseForNonWordToken(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO t VALUES (1);")
	_, ok := WordAt(tokens, len(tokens)-1)
	assert.False(t, ok)

	val, ok := WordAt(tokens, 0)
	require.True(t, ok)
	assert.Equal(t, "INSERT", val)
}

func TestTrimLeadingWhitespace(t *testing.T) {
	tokens := tokenize(t, "  INSERT")
	trimmed := TrimLeadingWhitespace(tokens)
	require.NotEmpty(t, trimmed)
	assert.Equal(t, token.Word, trimmed[0].Kind)
}

func TestIsInsertIntoTrueForInsertStatement(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO public.users (id) VALUES (1);")
	idx, ok := IsInsertInto(tokens)
	require.True(t, ok)
	assert.True(t, MatchKeywordAt(tokens, idx, token.Into))
}

func TestIsInsertIntoFalseForOtherStatements(t *testing.T) {
	tokens := tokenize(t, "CREATE TABLE users (id int);")
	_, ok := IsInsertInto(tokens)
	assert.False(t, ok)
}

func TestDatabaseAndTableFromInsertWithSchema(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO public.users (id) VALUES (1);")
	db, table, ok := DatabaseAndTableFromInsert(tokens)
	require.True(t, ok)
	assert.Equal(t, "public", db)
	assert.Equal(t, "users", table)
}

func TestDatabaseAndTableFromInsertWithoutSchema(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO users (id) VALUES (1);")
	db, table, ok := DatabaseAndTableFromInsert(tokens)
	require.True(t, ok)
	assert.Equal(t, "", db)
	assert.Equal(t, "users", table)
}

func TestDatabaseAndTableFromInsertHandlesOnlyKeyword(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO ONLY public.users (id) VALUES (1);")
	db, table, ok := DatabaseAndTableFromInsert(tokens)
	require.True(t, ok)
	assert.Equal(t, "public", db)
	assert.Equal(t, "users", table)
}

func TestDatabaseAndTableFromCreateTable(t *testing.T) {
	tokens := tokenize(t, "CREATE TABLE public.users (id int);")
	db, table, ok := DatabaseAndTableFromCreateTable(tokens)
	require.True(t, ok)
	assert.Equal(t, "public", db)
	assert.Equal(t, "users", table)
}

func TestDatabaseAndTableFromCreateTableFalseForNonCreate(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO users (id) VALUES (1);")
	_, _, ok := DatabaseAndTableFromCreateTable(tokens)
	assert.False(t, ok)
}

func TestColumnNamesFromInsert(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO users (id, name, email) VALUES (1, 'ada', 'ada@example.com');")
	names := ColumnNamesFromInsert(tokens)
	assert.Equal(t, []string{"id", "name", "email"}, names)
}

func TestColumnNamesFromInsertNilForNonInsert(t *testing.T) {
	tokens := tokenize(t, "CREATE TABLE users (id int);")
	assert.Nil(t, ColumnNamesFromInsert(tokens))
}

func TestColumnValuesFromInsert(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO users (id, name) VALUES (1, 'ada');")
	values := ColumnValuesFromInsert(tokens)
	require.Len(t, values, 2)
	assert.Equal(t, token.Number, values[0].Kind)
	assert.Equal(t, "1", values[0].Text)
	assert.Equal(t, token.SingleQuotedString, values[1].Kind)
	assert.Equal(t, "ada", values[1].Str)
}

func TestValueStringHandlesWordStringAndNumber(t *testing.T) {
	tokens := tokenize(t, "INSERT INTO users (id, flag, name) VALUES (1, true, 'ada');")
	values := ColumnValuesFromInsert(tokens)
	require.Len(t, values, 3)

	num, ok := ValueString(values[0])
	require.True(t, ok)
	assert.Equal(t, "1", num)

	word, ok := ValueString(values[1])
	require.True(t, ok)
	assert.Equal(t, "true", word)

	str, ok := ValueString(values[2])
	require.True(t, ok)
	assert.Equal(t, "ada", str)
}

func TestValueStringFalseForUnsupportedKind(t *testing.T) {
	tokens := tokenize(t, "(")
	_, ok := ValueString(tokens[0])
	assert.False(t, ok)
}

func TestForeignKeyFromAlterTable(t *testing.T) {
	stmt := "ALTER TABLE public.orders ADD CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES public.users (id);"
	tokens := tokenize(t, stmt)
	fk, ok := ForeignKeyFromAlterTable(tokens)
	require.True(t, ok)
	assert.Equal(t, "public", fk.FromDatabase)
	assert.Equal(t, "orders", fk.FromTable)
	assert.Equal(t, "user_id", fk.FromProperty)
	assert.Equal(t, "public", fk.ToDatabase)
	assert.Equal(t, "users", fk.ToTable)
	assert.Equal(t, "id", fk.ToProperty)
}

func TestForeignKeyFromAlterTableFalseWhenNoForeignKey(t *testing.T) {
	tokens := tokenize(t, "ALTER TABLE public.orders ADD PRIMARY KEY (id);")
	_, ok := ForeignKeyFromAlterTable(tokens)
	assert.False(t, ok)
}

func TestSerializeRoundTripsStatement(t *testing.T) {
	stmt := "INSERT INTO users (id, name) VALUES (1, 'ada');"
	tokens := tokenize(t, stmt)
	assert.Equal(t, stmt, Serialize(tokens))
}

func TestSerializeRoundTripsEscapedQuote(t *testing.T) {
	stmt := "SELECT 'it''s here';"
	tokens := tokenize(t, stmt)
	assert.Equal(t, stmt, Serialize(tokens))
}

func TestQuoteIdentWrapsUnquotedNamesAndLeavesQuotedOnesAlone(t *testing.T) {
	assert.Equal(t, `"id"`, QuoteIdent(`"id"`))
	assert.Equal(t, `"id"`, QuoteIdent("id"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "42", FormatNumber(42))
	assert.Equal(t, "-7", FormatNumber(-7))
}
