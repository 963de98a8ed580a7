package token

import (
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Tokenizer lexes a single SQL statement (or an arbitrary chunk of a dump)
// into a slice of Token. It is stateless between calls to Tokenize: create
// one per statement, the way the source does.
type Tokenizer struct {
	src  []rune
	pos  int
	line int
	col  int
}

// New builds a tokenizer over query, ready to Tokenize.
func New(query string) *Tokenizer {
	return &Tokenizer{src: []rune(query), line: 1, col: 1}
}

// Tokenize lexes the whole input and returns the resulting token sequence.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0, len(t.src)/4+8)

	for {
		tok, ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		switch {
		case tok.Kind == Whitespace && tok.WSKind == Newline:
			t.line++
			t.col = 1
		case tok.Kind == Whitespace && tok.WSKind == Tab:
			t.col += 4
		default:
			t.col++
		}

		tokens = append(tokens, tok)
	}

	return tokens, nil
}

func (t *Tokenizer) peek() (rune, bool) {
	if t.pos >= len(t.src) {
		return 0, false
	}
	return t.src[t.pos], true
}

func (t *Tokenizer) peekAt(offset int) (rune, bool) {
	idx := t.pos + offset
	if idx >= len(t.src) {
		return 0, false
	}
	return t.src[idx], true
}

func (t *Tokenizer) advance() {
	t.pos++
}

func (t *Tokenizer) tokenizerError(message string) error {
	return errs.NewTokenizer(message, t.line, t.col)
}

func (t *Tokenizer) consumeAndReturn(tok Token) (Token, bool, error) {
	t.advance()
	return tok, true, nil
}

func (t *Tokenizer) next() (Token, bool, error) {
	ch, ok := t.peek()
	if !ok {
		return Token{}, false, nil
	}

	switch {
	case ch == ' ':
		return t.consumeAndReturn(Token{Kind: Whitespace, WSKind: Space})
	case ch == '\t':
		return t.consumeAndReturn(Token{Kind: Whitespace, WSKind: Tab})
	case ch == '\n':
		return t.consumeAndReturn(Token{Kind: Whitespace, WSKind: Newline})
	case ch == '\r':
		t.advance()
		if next, ok := t.peek(); ok && next == '\n' {
			t.advance()
		}
		return Token{Kind: Whitespace, WSKind: Newline}, true, nil
	case ch == 'N', ch == 'n':
		t.advance()
		if next, ok := t.peek(); ok && next == '\'' {
			s, err := t.tokenizeSingleQuotedString()
			if err != nil {
				return Token{}, false, err
			}
			return Token{Kind: NationalStringLiteral, Str: s}, true, nil
		}
		word := t.tokenizeWord(ch)
		return maybeNumericWord(word), true, nil
	case ch == 'x' || ch == 'X':
		t.advance()
		if next, ok := t.peek(); ok && next == '\'' {
			s, err := t.tokenizeSingleQuotedString()
			if err != nil {
				return Token{}, false, err
			}
			return Token{Kind: HexStringLiteral, Str: s}, true, nil
		}
		word := t.tokenizeWord(ch)
		return maybeNumericWord(word), true, nil
	case isIdentifierStart(ch):
		t.advance()
		word := t.tokenizeWord(ch)
		return maybeNumericWord(word), true, nil
	case ch == '\'':
		s, err := t.tokenizeSingleQuotedString()
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: SingleQuotedString, Str: s}, true, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		return t.tokenizeNumberLiteral(0)
	case ch == '(':
		return t.consumeAndReturn(Token{Kind: LParen})
	case ch == ')':
		return t.consumeAndReturn(Token{Kind: RParen})
	case ch == ',':
		return t.consumeAndReturn(Token{Kind: Comma})
	case ch == '-':
		t.advance()
		switch next, ok := t.peek(); {
		case ok && next == '-':
			t.advance()
			prefix, text := t.tokenizeSingleLineComment()
			return Token{Kind: Whitespace, WSKind: SingleLineComment, CommentPrefix: prefix, CommentText: text}, true, nil
		case ok && next >= '0' && next <= '9':
			return t.tokenizeNumberLiteral('-')
		default:
			return Token{Kind: Minus}, true, nil
		}
	case ch == '/':
		t.advance()
		if next, ok := t.peek(); ok && next == '*' {
			t.advance()
			return t.tokenizeMultilineComment()
		}
		return Token{Kind: Div}, true, nil
	case ch == '+':
		t.advance()
		if next, ok := t.peek(); ok && next >= '0' && next <= '9' {
			return t.tokenizeNumberLiteral('+')
		}
		return Token{Kind: Plus}, true, nil
	case ch == '*':
		return t.consumeAndReturn(Token{Kind: Mul})
	case ch == '%':
		return t.consumeAndReturn(Token{Kind: Mod})
	case ch == '|':
		t.advance()
		switch next, ok := t.peek(); {
		case ok && next == '/':
			return t.consumeAndReturn(Token{Kind: PGSquareRoot})
		case ok && next == '|':
			t.advance()
			if n2, ok := t.peek(); ok && n2 == '/' {
				return t.consumeAndReturn(Token{Kind: PGCubeRoot})
			}
			return Token{Kind: StringConcat}, true, nil
		default:
			return Token{Kind: Pipe}, true, nil
		}
	case ch == '=':
		t.advance()
		if next, ok := t.peek(); ok && next == '>' {
			return t.consumeAndReturn(Token{Kind: RArrow})
		}
		return Token{Kind: Eq}, true, nil
	case ch == '!':
		t.advance()
		switch next, ok := t.peek(); {
		case ok && next == '=':
			return t.consumeAndReturn(Token{Kind: Neq})
		case ok && next == '!':
			return t.consumeAndReturn(Token{Kind: DoubleExclamationMark})
		case ok && next == '~':
			t.advance()
			if n2, ok := t.peek(); ok && n2 == '*' {
				return t.consumeAndReturn(Token{Kind: ExclamationMarkTildeAsterisk})
			}
			return Token{Kind: ExclamationMarkTilde}, true, nil
		default:
			return Token{Kind: ExclamationMark}, true, nil
		}
	case ch == '<':
		t.advance()
		switch next, ok := t.peek(); {
		case ok && next == '=':
			t.advance()
			if n2, ok := t.peek(); ok && n2 == '>' {
				return t.consumeAndReturn(Token{Kind: Spaceship})
			}
			return Token{Kind: LtEq}, true, nil
		case ok && next == '>':
			return t.consumeAndReturn(Token{Kind: Neq})
		case ok && next == '<':
			return t.consumeAndReturn(Token{Kind: ShiftLeft})
		default:
			return Token{Kind: Lt}, true, nil
		}
	case ch == '>':
		t.advance()
		switch next, ok := t.peek(); {
		case ok && next == '=':
			return t.consumeAndReturn(Token{Kind: GtEq})
		case ok && next == '>':
			return t.consumeAndReturn(Token{Kind: ShiftRight})
		default:
			return Token{Kind: Gt}, true, nil
		}
	case ch == ':':
		t.advance()
		if next, ok := t.peek(); ok && next == ':' {
			return t.consumeAndReturn(Token{Kind: DoubleColon})
		}
		return Token{Kind: Colon}, true, nil
	case ch == ';':
		return t.consumeAndReturn(Token{Kind: SemiColon})
	case ch == '\\':
		return t.consumeAndReturn(Token{Kind: Backslash})
	case ch == '[':
		return t.consumeAndReturn(Token{Kind: LBracket})
	case ch == ']':
		return t.consumeAndReturn(Token{Kind: RBracket})
	case ch == '&':
		return t.consumeAndReturn(Token{Kind: Ampersand})
	case ch == '^':
		return t.consumeAndReturn(Token{Kind: Caret})
	case ch == '{':
		return t.consumeAndReturn(Token{Kind: LBrace})
	case ch == '}':
		return t.consumeAndReturn(Token{Kind: RBrace})
	case ch == '~':
		t.advance()
		if next, ok := t.peek(); ok && next == '*' {
			return t.consumeAndReturn(Token{Kind: TildeAsterisk})
		}
		return Token{Kind: Tilde}, true, nil
	case ch == '#':
		return t.consumeAndReturn(Token{Kind: Sharp})
	case ch == '@':
		return t.consumeAndReturn(Token{Kind: AtSign})
	case ch == '?':
		return t.consumeAndReturn(Token{Kind: Placeholder, Str: "?"})
	case ch == '$':
		t.advance()
		s := t.takeWhile(isAlnum)
		return Token{Kind: Placeholder, Str: "$" + s}, true, nil
	default:
		return t.consumeAndReturn(Token{Kind: Char, Ch: ch})
	}
}

// maybeNumericWord mirrors the source's quirk: an identifier made entirely
// of digits and dots (can only happen starting with a quote char that isn't
// actually reachable here, kept for parity) degrades to a Number. In
// practice is_identifier_start never admits a digit, so this is a no-op
// guard that keeps the structure symmetric with the original tokenizer.
func maybeNumericWord(word Token) Token {
	return word
}

func (t *Tokenizer) tokenizeWord(first rune) Token {
	var b strings.Builder
	b.WriteRune(first)
	b.WriteString(t.takeWhile(isIdentifierPart))
	if first == '"' {
		return MakeWord(b.String(), '"', true)
	}
	return MakeWord(b.String(), 0, false)
}

func (t *Tokenizer) takeWhile(pred func(rune) bool) string {
	var b strings.Builder
	for {
		ch, ok := t.peek()
		if !ok || !pred(ch) {
			break
		}
		b.WriteRune(ch)
		t.advance()
	}
	return b.String()
}

func (t *Tokenizer) tokenizeSingleQuotedString() (string, error) {
	var b strings.Builder
	t.advance() // opening quote

	for {
		ch, ok := t.peek()
		if !ok {
			return "", t.tokenizerError("unterminated string literal")
		}
		if ch == '\'' {
			t.advance()
			if next, ok := t.peek(); ok && next == '\'' {
				t.advance()
				b.WriteString("''")
				continue
			}
			return b.String(), nil
		}
		t.advance()
		b.WriteRune(ch)
	}
}

func (t *Tokenizer) tokenizeSingleLineComment() (prefix, text string) {
	comment := t.takeWhile(func(ch rune) bool { return ch != '\n' })
	if next, ok := t.peek(); ok && next == '\n' {
		t.advance()
		comment += "\n"
	}
	return "--", comment
}

func (t *Tokenizer) tokenizeMultilineComment() (Token, bool, error) {
	var b strings.Builder
	maybeClosing := false

	for {
		ch, ok := t.peek()
		if !ok {
			return Token{}, false, t.tokenizerError("unexpected EOF while in a multi-line comment")
		}
		t.advance()

		if maybeClosing {
			if ch == '/' {
				return Token{Kind: Whitespace, WSKind: MultiLineComment, CommentText: b.String()}, true, nil
			}
			b.WriteRune('*')
		}
		maybeClosing = ch == '*'
		if !maybeClosing {
			b.WriteRune(ch)
		}
	}
}

// tokenizeNumberLiteral reads a numeric literal, with an optional sign
// character already consumed by the caller ('+'/'-'), or 0 for none.
func (t *Tokenizer) tokenizeNumberLiteral(sign rune) (Token, bool, error) {
	var b strings.Builder
	if sign != 0 {
		b.WriteRune(sign)
	}
	b.WriteString(t.takeWhile(isDigit))

	s := b.String()
	bareDigits := s
	if sign != 0 {
		bareDigits = s[1:]
	}

	if bareDigits == "0" {
		if next, ok := t.peek(); ok && next == 'x' {
			t.advance()
			hex := t.takeWhile(isHexDigit)
			return Token{Kind: HexStringLiteral, Str: hex}, true, nil
		}
	}

	if next, ok := t.peek(); ok && next == '.' {
		b.WriteRune('.')
		t.advance()
	}
	b.WriteString(t.takeWhile(isDigit))

	s = b.String()
	if s == "." {
		return Token{Kind: Period}, true, nil
	}

	isLong := false
	if next, ok := t.peek(); ok && next == 'L' {
		t.advance()
		isLong = true
	}

	return Token{Kind: Number, Text: s, IsLong: isLong}, true, nil
}

func isIdentifierStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '"'
}

func isIdentifierPart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '$' || ch == '_' || ch == '"'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isAlnum(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
