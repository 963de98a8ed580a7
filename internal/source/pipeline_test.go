package source

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkdb/snapctl/internal/task"
	"github.com/brinkdb/snapctl/internal/transform"
)

type fakeSource struct {
	body string
}

func (f *fakeSource) Init() error { return nil }
func (f *fakeSource) Reader() (io.Reader, error) {
	return strings.NewReader(f.body), nil
}
func (f *fakeSource) Type() string { return "fake" }

func TestStatementPipelinePassesThroughNonInsertStatements(t *testing.T) {
	body := "CREATE TABLE public.users (id integer);\n"
	p := NewStatementPipeline(&fakeSource{body: body}, "public", nil, nil)

	var rows []string
	err := p.Read(func(r task.Row) error {
		rows = append(rows, string(r.Data))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "CREATE TABLE public.users")
}

func TestStatementPipelineRewritesInsertsAndSkipsColumns(t *testing.T) {
	body := "INSERT INTO public.users (id, email, password) VALUES (1, 'ada@example.com', 'hunter2');\n"
	set := transform.NewSet(transform.NewEmail("public", "users", "email"))
	skip := transform.SkipSet{"public.users.password": struct{}{}}
	p := NewStatementPipeline(&fakeSource{body: body}, "public", set, skip)

	var rows []string
	err := p.Read(func(r task.Row) error {
		rows = append(rows, string(r.Data))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0], "hunter2")
	assert.NotContains(t, rows[0], "ada@example.com")
}

func TestStatementPipelineHandlesMultipleStatementsAcrossLines(t *testing.T) {
	body := "CREATE TABLE public.t (\n  id integer\n);\nINSERT INTO public.t (id) VALUES (1);\n"
	p := NewStatementPipeline(&fakeSource{body: body}, "public", nil, nil)

	var rows []string
	err := p.Read(func(r task.Row) error {
		rows = append(rows, string(r.Data))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStatementPipelinePropagatesOnRowError(t *testing.T) {
	body := "INSERT INTO public.t (id) VALUES (1);\n"
	p := NewStatementPipeline(&fakeSource{body: body}, "public", nil, nil)

	err := p.Read(func(r task.Row) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
