package source

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdinReaderAndType(t *testing.T) {
	s := NewStdin("postgresql")
	assert.Equal(t, "postgresql", s.Type())
	require.NoError(t, s.Init())

	r, err := s.Reader()
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestNewPostgresBuildsExpectedCommand(t *testing.T) {
	c := NewPostgres("db.internal", 5432, "app", "ada", "hunter2")
	assert.Equal(t, "postgresql", c.Type())
	assert.Equal(t, "pg_dump", c.name)
	assert.Equal(t, []string{
		"--column-inserts",
		"-h", "db.internal",
		"-p", "5432",
		"-d", "app",
		"-U", "ada",
	}, c.args)
	assert.Equal(t, []string{"PGPASSWORD=hunter2"}, c.env)
}

func TestNewMySQLBuildsExpectedCommand(t *testing.T) {
	c := NewMySQL("db.internal", 3306, "app", "ada", "hunter2")
	assert.Equal(t, "mysql", c.Type())
	assert.Equal(t, "mysqldump", c.name)
	assert.Equal(t, []string{
		"--complete-insert",
		"--skip-extended-insert",
		"-h", "db.internal",
		"-P", "3306",
		"-u", "ada",
		"-phunter2",
		"app",
	}, c.args)
}

func TestNewMongoDBOmitsCredentialsWhenUsernameEmpty(t *testing.T) {
	c := NewMongoDB("db.internal", 27017, "app", "", "")
	assert.Equal(t, "mongodb", c.Type())
	assert.Equal(t, "mongodump", c.name)
	assert.Equal(t, []string{
		"--archive",
		"--host", "db.internal",
		"--port", "27017",
		"--db", "app",
	}, c.args)
}

func TestNewMongoDBIncludesCredentialsWhenUsernameSet(t *testing.T) {
	c := NewMongoDB("db.internal", 27017, "app", "ada", "hunter2")
	assert.Equal(t, []string{
		"--archive",
		"--host", "db.internal",
		"--port", "27017",
		"--db", "app",
		"--username", "ada",
		"--password", "hunter2",
	}, c.args)
}

func TestPortStringZeroOrNegativeIsOmitted(t *testing.T) {
	assert.Equal(t, "", portString(0))
	assert.Equal(t, "", portString(-1))
	assert.Equal(t, "5432", portString(5432))
}

func TestWaitReaderSurfacesExitErrorAfterEOF(t *testing.T) {
	w := &waitReader{
		r:    bytes.NewReader([]byte("hello")),
		wait: func() error { return errors.New("exit status 1") },
		name: "pg_dump",
	}

	buf := make([]byte, 32)
	n, err := w.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	_, err = w.Read(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pg_dump exited with an error")
	assert.True(t, w.done)
}

func TestWaitReaderPassesThroughCleanExit(t *testing.T) {
	w := &waitReader{
		r:    bytes.NewReader([]byte("ok")),
		wait: func() error { return nil },
		name: "pg_dump",
	}

	buf := make([]byte, 32)
	n, _ := w.Read(buf)
	assert.Equal(t, "ok", string(buf[:n]))

	_, err := w.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.True(t, w.done)
}

func TestWaitReaderOnlyWaitsOnce(t *testing.T) {
	calls := 0
	w := &waitReader{
		r:    bytes.NewReader(nil),
		wait: func() error { calls++; return nil },
		name: "pg_dump",
	}

	buf := make([]byte, 8)
	_, _ = w.Read(buf)
	_, _ = w.Read(buf)
	assert.Equal(t, 1, calls)
}
