package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeSimpleInsert(t *testing.T) {
	tokens, err := New(`INSERT INTO users (id, name) VALUES (1, 'ada');`).Tokenize()
	require.NoError(t, err)

	var words []string
	for _, tok := range tokens {
		if tok.Kind == Word {
			words = append(words, tok.Value)
		}
	}
	assert.Contains(t, words, "INSERT")
	assert.Contains(t, words, "users")
	assert.Contains(t, words, "name")
}

func TestTokenizeRecognizesKeywordsCaseInsensitively(t *testing.T) {
	tokens, err := New("insert into t values (1);").Tokenize()
	require.NoError(t, err)

	assert.Equal(t, Insert, tokens[0].KeywordID)
}

func TestTokenizeQuotedIdentifierHasNoKeyword(t *testing.T) {
	tokens, err := New(`"INSERT" + 1`).Tokenize()
	require.NoError(t, err)

	require.Equal(t, Word, tokens[0].Kind)
	assert.Equal(t, NoKeyword, tokens[0].KeywordID)
	assert.True(t, tokens[0].HasQuote)
}

func TestTokenizeSingleQuotedStringHandlesEscapedQuote(t *testing.T) {
	tokens, err := New(`'it''s a test'`).Tokenize()
	require.NoError(t, err)

	require.Len(t, tokens, 1)
	assert.Equal(t, SingleQuotedString, tokens[0].Kind)
	assert.Equal(t, "it''s a test", tokens[0].Str)
}

func TestTokenizeUnterminatedStringIsAnError(t *testing.T) {
	_, err := New(`'unterminated`).Tokenize()
	assert.Error(t, err)
}

func TestTokenizeNumbersWithSignsAndDecimals(t *testing.T) {
	tokens, err := New("1 -2 3.14").Tokenize()
	require.NoError(t, err)

	var numbers []string
	for _, tok := range tokens {
		if tok.Kind == Number {
			numbers = append(numbers, tok.Text)
		}
	}
	assert.Contains(t, numbers, "1")
	assert.Contains(t, numbers, "3.14")
}

func TestTokenizePunctuation(t *testing.T) {
	tokens, err := New("(a, b);").Tokenize()
	require.NoError(t, err)

	ks := kinds(tokens)
	assert.Contains(t, ks, LParen)
	assert.Contains(t, ks, Comma)
	assert.Contains(t, ks, RParen)
	assert.Contains(t, ks, SemiColon)
}

func TestTokenizeSingleLineComment(t *testing.T) {
	tokens, err := New("-- a comment\nSELECT").Tokenize()
	require.NoError(t, err)

	found := false
	for _, tok := range tokens {
		if tok.Kind == Whitespace && tok.WSKind == SingleLineComment {
			found = true
			assert.Equal(t, " a comment\n", tok.CommentText)
		}
	}
	assert.True(t, found)
}

func TestTokenizeMultilineComment(t *testing.T) {
	tokens, err := New("/* block */ SELECT").Tokenize()
	require.NoError(t, err)

	found := false
	for _, tok := range tokens {
		if tok.Kind == Whitespace && tok.WSKind == MultiLineComment {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMakeWordAssignsKeywordOnlyWhenUnquoted(t *testing.T) {
	plain := MakeWord("table", 0, false)
	assert.Equal(t, Table, plain.KeywordID)

	quoted := MakeWord("table", '"', true)
	assert.Equal(t, NoKeyword, quoted.KeywordID)
}

func TestQuotedValueWrapsOnlyWhenQuoted(t *testing.T) {
	plain := MakeWord("id", 0, false)
	assert.Equal(t, "id", plain.QuotedValue())

	quoted := MakeWord("id", '"', true)
	assert.Equal(t, `"id"`, quoted.QuotedValue())
}
