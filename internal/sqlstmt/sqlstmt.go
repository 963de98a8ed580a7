// Package sqlstmt provides structural helpers over an already-tokenized SQL
// statement: pulling column names/values out of an INSERT INTO, and
// identifying CREATE TABLE / ALTER TABLE ... FOREIGN KEY statements.
//
// Unlike the tokenizer this package scans for keywords rather than indexing
// into the token slice at fixed offsets — see DESIGN.md's note on the
// INSERT-detection open question.
package sqlstmt

import (
	"strconv"
	"strings"

	"github.com/brinkdb/snapctl/internal/token"
)

// MatchKeywordAt reports whether tokens[pos] is a Word token carrying kw.
func MatchKeywordAt(tokens []token.Token, pos int, kw token.Keyword) bool {
	if pos < 0 || pos >= len(tokens) {
		return false
	}
	tok := tokens[pos]
	return tok.Kind == token.Word && tok.KeywordID == kw
}

// WordAt returns the raw value of tokens[pos] if it is a Word token.
func WordAt(tokens []token.Token, pos int) (string, bool) {
	if pos < 0 || pos >= len(tokens) {
		return "", false
	}
	tok := tokens[pos]
	if tok.Kind != token.Word {
		return "", false
	}
	return tok.Value, true
}

// TrimLeadingWhitespace drops leading Whitespace tokens.
func TrimLeadingWhitespace(tokens []token.Token) []token.Token {
	i := 0
	for i < len(tokens) && tokens[i].Kind == token.Whitespace {
		i++
	}
	return tokens[i:]
}

// firstKeywordIndex returns the index of the first Word token carrying kw,
// starting the scan at from, or -1.
func firstKeywordIndex(tokens []token.Token, from int, kw token.Keyword) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].Kind == token.Word && tokens[i].KeywordID == kw {
			return i
		}
	}
	return -1
}

// IsInsertInto reports whether tokens begin (ignoring leading whitespace)
// with INSERT ... INTO, and returns the index of the INTO keyword.
func IsInsertInto(tokens []token.Token) (intoIdx int, ok bool) {
	trimmed := TrimLeadingWhitespace(tokens)
	offset := len(tokens) - len(trimmed)
	if len(trimmed) == 0 || trimmed[0].Kind != token.Word || trimmed[0].KeywordID != token.Insert {
		return 0, false
	}
	idx := firstKeywordIndex(trimmed, 1, token.Into)
	if idx == -1 {
		return 0, false
	}
	return offset + idx, true
}

// DatabaseAndTableFromInsert scans for INSERT, then the next INTO, then the
// next Word/Period/Word triple, and returns database, table.
func DatabaseAndTableFromInsert(tokens []token.Token) (db, table string, ok bool) {
	intoIdx, found := IsInsertInto(tokens)
	if !found {
		return "", "", false
	}
	return wordPeriodWordAfter(tokens, intoIdx+1)
}

// DatabaseAndTableFromCreateTable scans for CREATE, then TABLE, then the
// next Word/Period/Word triple.
func DatabaseAndTableFromCreateTable(tokens []token.Token) (db, table string, ok bool) {
	trimmed := TrimLeadingWhitespace(tokens)
	offset := len(tokens) - len(trimmed)
	if len(trimmed) == 0 || trimmed[0].Kind != token.Word || trimmed[0].KeywordID != token.Create {
		return "", "", false
	}
	tableIdx := firstKeywordIndex(trimmed, 1, token.Table)
	if tableIdx == -1 {
		return "", "", false
	}
	return wordPeriodWordAfter(tokens, offset+tableIdx+1)
}

// wordPeriodWordAfter scans forward from `from` for the first Word, Period,
// Word triple (skipping whitespace and an optional ONLY keyword between
// them), returning the two words as database and table.
func wordPeriodWordAfter(tokens []token.Token, from int) (first, second string, ok bool) {
	i := from
	for i < len(tokens) {
		if tokens[i].Kind == token.Whitespace || (tokens[i].Kind == token.Word && tokens[i].KeywordID == token.Only) {
			i++
			continue
		}
		break
	}
	if i >= len(tokens) || tokens[i].Kind != token.Word {
		return "", "", false
	}
	firstWord := tokens[i].Value
	i++
	for i < len(tokens) && tokens[i].Kind == token.Whitespace {
		i++
	}
	if i >= len(tokens) || tokens[i].Kind != token.Period {
		// no qualifying database; table name only
		return "", firstWord, true
	}
	i++
	for i < len(tokens) && tokens[i].Kind == token.Whitespace {
		i++
	}
	if i >= len(tokens) || tokens[i].Kind != token.Word {
		return "", "", false
	}
	return firstWord, tokens[i].Value, true
}

// ColumnNamesFromInsert collects the identifier words between the first
// LParen and its matching RParen of an INSERT INTO statement. Quotes typed
// by the user are already embedded in Token.Value by the tokenizer, so
// round-tripping requires no extra quoting logic here.
func ColumnNamesFromInsert(tokens []token.Token) []string {
	if _, ok := IsInsertInto(tokens); !ok {
		return nil
	}

	start := indexOfKind(tokens, 0, token.LParen)
	if start == -1 {
		return nil
	}
	end := indexOfKind(tokens, start, token.RParen)
	if end == -1 {
		end = len(tokens)
	}

	var names []string
	for _, tok := range tokens[start+1 : end] {
		if tok.Kind == token.Word {
			names = append(names, tok.Value)
		}
	}
	return names
}

// ColumnValuesFromInsert finds the second LParen..RParen group (the VALUES
// clause) and returns the value tokens in order, dropping commas,
// whitespace, and the parens.
func ColumnValuesFromInsert(tokens []token.Token) []token.Token {
	if _, ok := IsInsertInto(tokens); !ok {
		return nil
	}

	firstClose := indexOfKind(tokens, 0, token.RParen)
	if firstClose == -1 {
		return nil
	}
	start := indexOfKind(tokens, firstClose, token.LParen)
	if start == -1 {
		return nil
	}
	end := indexOfKind(tokens, start, token.RParen)
	if end == -1 {
		end = len(tokens)
	}

	values := make([]token.Token, 0, end-start)
	for _, tok := range tokens[start+1 : end] {
		switch tok.Kind {
		case token.Comma, token.Whitespace, token.LParen, token.RParen:
			continue
		default:
			values = append(values, tok)
		}
	}
	return values
}

func indexOfKind(tokens []token.Token, from int, kind token.Kind) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i].Kind == kind {
			return i
		}
	}
	return -1
}

// ValueString renders a value token the way the dump's textual form needs
// it: word text verbatim, quoted-string text verbatim (the surrounding
// quotes are added only by the caller that re-serializes a statement, this
// helper returns the inner semantic value), and numbers with a trailing 'L'
// restored for long literals.
func ValueString(tok token.Token) (string, bool) {
	switch tok.Kind {
	case token.Word:
		return tok.Value, true
	case token.SingleQuotedString:
		return tok.Str, true
	case token.Number:
		if tok.IsLong {
			return tok.Text + "L", true
		}
		return tok.Text, true
	default:
		return "", false
	}
}

// ForeignKey describes one FK relation parsed out of an ALTER TABLE ... ADD
// CONSTRAINT ... FOREIGN KEY statement.
type ForeignKey struct {
	FromDatabase string
	FromTable    string
	FromProperty string
	ToDatabase   string
	ToTable      string
	ToProperty   string
}

// ForeignKeyFromAlterTable scans an ALTER TABLE statement for a FOREIGN KEY
// constraint, returning ok=false for ALTER TABLE statements that do not add
// one (e.g. ADD PRIMARY KEY, ADD CHECK, ...).
func ForeignKeyFromAlterTable(tokens []token.Token) (ForeignKey, bool) {
	trimmed := TrimLeadingWhitespace(tokens)
	offset := len(tokens) - len(trimmed)
	if len(trimmed) == 0 || trimmed[0].Kind != token.Word || trimmed[0].KeywordID != token.Alter {
		return ForeignKey{}, false
	}
	tableIdx := firstKeywordIndex(trimmed, 1, token.Table)
	if tableIdx == -1 {
		return ForeignKey{}, false
	}

	fromDB, fromTable, ok := wordPeriodWordAfter(tokens, offset+tableIdx+1)
	if !ok {
		return ForeignKey{}, false
	}

	fkIdx := firstKeywordIndex(tokens, offset+tableIdx+1, token.Foreign)
	if fkIdx == -1 {
		return ForeignKey{}, false
	}
	keyIdx := firstKeywordIndex(tokens, fkIdx+1, token.Key)
	if keyIdx == -1 {
		return ForeignKey{}, false
	}

	fromPropStart := indexOfKind(tokens, keyIdx, token.LParen)
	if fromPropStart == -1 {
		return ForeignKey{}, false
	}
	fromPropEnd := indexOfKind(tokens, fromPropStart, token.RParen)
	if fromPropEnd == -1 {
		return ForeignKey{}, false
	}
	fromProperty, ok := firstWordIn(tokens[fromPropStart+1 : fromPropEnd])
	if !ok {
		return ForeignKey{}, false
	}

	refIdx := firstKeywordIndex(tokens, fromPropEnd, token.References)
	if refIdx == -1 {
		return ForeignKey{}, false
	}
	toDB, toTable, ok := wordPeriodWordAfter(tokens, refIdx+1)
	if !ok {
		return ForeignKey{}, false
	}

	toPropStart := indexOfKind(tokens, refIdx, token.LParen)
	if toPropStart == -1 {
		return ForeignKey{}, false
	}
	toPropEnd := indexOfKind(tokens, toPropStart, token.RParen)
	if toPropEnd == -1 {
		return ForeignKey{}, false
	}
	toProperty, ok := firstWordIn(tokens[toPropStart+1 : toPropEnd])
	if !ok {
		return ForeignKey{}, false
	}

	return ForeignKey{
		FromDatabase: fromDB,
		FromTable:    fromTable,
		FromProperty: fromProperty,
		ToDatabase:   toDB,
		ToTable:      toTable,
		ToProperty:   toProperty,
	}, true
}

func firstWordIn(tokens []token.Token) (string, bool) {
	for _, tok := range tokens {
		if tok.Kind == token.Word {
			return tok.Value, true
		}
	}
	return "", false
}

// Serialize renders tokens back to their literal textual form. The dump
// pipeline and schema printing emit the original statement text instead,
// so only tests call it.
func Serialize(tokens []token.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(serializeOne(tok))
	}
	return b.String()
}

func serializeOne(tok token.Token) string {
	switch tok.Kind {
	case token.Word:
		return tok.Value
	case token.Whitespace:
		switch tok.WSKind {
		case token.Space:
			return " "
		case token.Tab:
			return "\t"
		case token.Newline:
			return "\n"
		case token.SingleLineComment:
			return tok.CommentPrefix + tok.CommentText
		case token.MultiLineComment:
			return "/*" + tok.CommentText + "*/"
		}
		return ""
	case token.SingleQuotedString:
		return "'" + tok.Str + "'"
	case token.NationalStringLiteral:
		return "N'" + tok.Str + "'"
	case token.HexStringLiteral:
		return "x'" + tok.Str + "'"
	case token.Number:
		if tok.IsLong {
			return tok.Text + "L"
		}
		return tok.Text
	case token.Comma:
		return ","
	case token.LParen:
		return "("
	case token.RParen:
		return ")"
	case token.Period:
		return "."
	case token.SemiColon:
		return ";"
	case token.Eq:
		return "="
	case token.Placeholder:
		return tok.Str
	case token.Char:
		return string(tok.Ch)
	default:
		return punctuationText(tok.Kind)
	}
}

func punctuationText(kind token.Kind) string {
	switch kind {
	case token.DoubleEq:
		return "=="
	case token.Neq:
		return "<>"
	case token.Lt:
		return "<"
	case token.Gt:
		return ">"
	case token.LtEq:
		return "<="
	case token.GtEq:
		return ">="
	case token.Spaceship:
		return "<=>"
	case token.Plus:
		return "+"
	case token.Minus:
		return "-"
	case token.Mul:
		return "*"
	case token.Div:
		return "/"
	case token.Mod:
		return "%"
	case token.StringConcat:
		return "||"
	case token.Colon:
		return ":"
	case token.DoubleColon:
		return "::"
	case token.Backslash:
		return "\\"
	case token.LBracket:
		return "["
	case token.RBracket:
		return "]"
	case token.Ampersand:
		return "&"
	case token.Pipe:
		return "|"
	case token.Caret:
		return "^"
	case token.LBrace:
		return "{"
	case token.RBrace:
		return "}"
	case token.RArrow:
		return "=>"
	case token.Sharp:
		return "#"
	case token.Tilde:
		return "~"
	case token.TildeAsterisk:
		return "~*"
	case token.ExclamationMarkTilde:
		return "!~"
	case token.ExclamationMarkTildeAsterisk:
		return "!~*"
	case token.ShiftLeft:
		return "<<"
	case token.ShiftRight:
		return ">>"
	case token.ExclamationMark:
		return "!"
	case token.DoubleExclamationMark:
		return "!!"
	case token.AtSign:
		return "@"
	case token.PGSquareRoot:
		return "|/"
	case token.PGCubeRoot:
		return "||/"
	default:
		return ""
	}
}

// QuoteIdent wraps an identifier in double quotes if it isn't already.
// transform.ApplyToInsert does not use it: rebuilt INSERTs keep column
// names exactly as the tokenizer lexed them.
func QuoteIdent(name string) string {
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name
	}
	return `"` + name + `"`
}

// FormatNumber is a small helper the transformer pipeline uses to render a
// parsed int64 back using strconv.
func FormatNumber(n int64) string {
	return strconv.FormatInt(n, 10)
}
