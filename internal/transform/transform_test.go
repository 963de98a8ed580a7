package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkdb/snapctl/internal/column"
	"github.com/brinkdb/snapctl/internal/token"
)

func TestTransientLeavesValueUnchanged(t *testing.T) {
	tr := NewTransient("public", "users", "email")
	c := column.String("email", "ada@example.com")
	assert.Equal(t, c, tr.Transform(c))
}

func TestRandomPreservesStringLength(t *testing.T) {
	tr := NewRandom("public", "users", "name")
	c := column.String("name", "Ada")
	out := tr.Transform(c)
	assert.Len(t, out.Str, 3)
	assert.NotEqual(t, "Ada", out.Str)
}

func TestKeepFirstCharOnStringAndNumber(t *testing.T) {
	tr := NewKeepFirstChar("public", "users", "code")
	assert.Equal(t, "A", tr.Transform(column.String("code", "Ada")).Str)
	assert.Equal(t, int64(4), tr.Transform(column.Number("code", 4242)).Int)
	assert.Equal(t, int64(-4), tr.Transform(column.Number("code", -4242)).Int)
}

func TestRedactedKeepsFirstThreeChars(t *testing.T) {
	tr := NewRedacted("public", "cards", "number", RedactedOptions{Character: '*', Width: 4})
	out := tr.Transform(column.String("number", "4242424242424242"))
	assert.Equal(t, "424****", out.Str)

	short := tr.Transform(column.String("number", "42"))
	assert.Equal(t, "42", short.Str)
}

func TestFromSpecBareID(t *testing.T) {
	tr, err := FromSpec("email", "public", "users", "email")
	require.NoError(t, err)
	assert.Equal(t, "email", tr.ID())
	assert.Equal(t, "public.users.email", Key(tr))
}

func TestFromSpecWithOptions(t *testing.T) {
	tr, err := FromSpec("redacted{char=#,width=5}", "public", "cards", "number")
	require.NoError(t, err)
	redacted, ok := tr.(Redacted)
	require.True(t, ok)
	assert.Equal(t, '#', redacted.Options.Character)
	assert.Equal(t, 5, redacted.Options.Width)
}

func TestBuiltinsCoversEveryRegisteredID(t *testing.T) {
	ids := make(map[string]bool)
	for _, tr := range Builtins() {
		ids[tr.ID()] = true
		assert.NotEmpty(t, tr.Description())
	}
	for _, id := range []string{"transient", "random", "keep-first-char", "first-name", "email", "phone-number", "credit-card", "random-date", "redacted"} {
		assert.True(t, ids[id], "missing builtin %q", id)
	}
}

func TestFromSpecUnknownID(t *testing.T) {
	_, err := FromSpec("not-a-real-transformer", "public", "users", "email")
	assert.Error(t, err)
}

func TestFromSpecMalformedOptions(t *testing.T) {
	_, err := FromSpec("redacted{char=#", "public", "users", "email")
	assert.Error(t, err)
}

func TestSetApplyUsesRegisteredTransformer(t *testing.T) {
	set := NewSet(NewRedacted("public", "cards", "number", RedactedOptions{Character: '*', Width: 4}))
	out := set.Apply("public", "cards", column.String("number", "4242424242424242"))
	assert.Equal(t, "424****", out.Str)

	untouched := set.Apply("public", "cards", column.String("other", "value"))
	assert.Equal(t, "value", untouched.Str)
}

func TestApplyToInsertRewritesMatchingStatement(t *testing.T) {
	stmt := `INSERT INTO public.users (id, email, password) VALUES (1, 'ada@example.com', 'hunter2');`
	tokens, err := token.New(stmt).Tokenize()
	require.NoError(t, err)

	set := NewSet(NewEmail("public", "users", "email"))
	skip := SkipSet{"public.users.password": struct{}{}}

	out, ok := ApplyToInsert(tokens, "public", "users", set, skip)
	require.True(t, ok)
	assert.Contains(t, out, "INSERT INTO public.users (id, email) VALUES (1, ")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "ada@example.com")
}

func TestApplyToInsertIgnoresNonInsertStatements(t *testing.T) {
	stmt := `CREATE TABLE public.users (id integer);`
	tokens, err := token.New(stmt).Tokenize()
	require.NoError(t, err)

	_, ok := ApplyToInsert(tokens, "public", "users", nil, nil)
	assert.False(t, ok)
}
