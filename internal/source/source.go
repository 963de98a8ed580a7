// Package source defines where a dump's raw bytes come from: standard
// input, an existing dump file, or a database engine's native dump tool
// run as a subprocess.
package source

import (
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Source is anything able to hand back a byte stream of dump output.
type Source interface {
	Init() error
	Reader() (io.Reader, error)
	Type() string
}

// Stdin reads dump bytes piped into the process, used by `--stdin`.
type Stdin struct {
	kind string
}

// NewStdin wraps os.Stdin; kind is what Type reports (`dump create
// --stdin` passes "stdin").
func NewStdin(kind string) *Stdin {
	return &Stdin{kind: kind}
}

func (s *Stdin) Init() error { return nil }

func (s *Stdin) Reader() (io.Reader, error) { return os.Stdin, nil }

func (s *Stdin) Type() string { return s.kind }

// Command runs a database engine's native dump tool as a subprocess and
// streams its stdout.
type Command struct {
	kind string
	name string
	args []string
	env  []string

	cmd *exec.Cmd
}

func (c *Command) Init() error { return nil }

func (c *Command) Type() string { return c.kind }

// Reader starts the subprocess and returns a reader over its stdout. The
// process's exit error, if any, surfaces as the error from the final Read
// once stdout reaches EOF.
func (c *Command) Reader() (io.Reader, error) {
	c.cmd = exec.Command(c.name, c.args...)
	c.cmd.Env = append(os.Environ(), c.env...)
	c.cmd.Stderr = os.Stderr

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return nil, errs.WrapIO("creating stdout pipe for "+c.name, err)
	}

	if err := c.cmd.Start(); err != nil {
		return nil, errs.WrapIO("starting "+c.name, err)
	}

	return &waitReader{r: stdout, wait: c.cmd.Wait, name: c.name}, nil
}

// waitReader defers the subprocess's exit error until its stdout has been
// fully drained, so a non-zero exit still surfaces to the caller even
// though Reader returns before the process finishes.
type waitReader struct {
	r    io.Reader
	wait func() error
	name string
	done bool
}

func (w *waitReader) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if err == io.EOF && !w.done {
		w.done = true
		if waitErr := w.wait(); waitErr != nil {
			return n, errs.WrapIO(w.name+" exited with an error", waitErr)
		}
	}
	return n, err
}

// NewPostgres runs pg_dump against a running server.
func NewPostgres(host string, port int, database, username, password string) *Command {
	return &Command{
		kind: "postgresql",
		name: "pg_dump",
		args: []string{
			"--column-inserts",
			"-h", host,
			"-p", portString(port),
			"-d", database,
			"-U", username,
		},
		env: []string{"PGPASSWORD=" + password},
	}
}

// NewMySQL runs mysqldump against a running server.
func NewMySQL(host string, port int, database, username, password string) *Command {
	return &Command{
		kind: "mysql",
		name: "mysqldump",
		args: []string{
			"--complete-insert",
			"--skip-extended-insert",
			"-h", host,
			"-P", portString(port),
			"-u", username,
			"-p" + password,
			database,
		},
	}
}

// NewMongoDB runs mongodump against a running server, emitting the
// archive format mongoarchive decodes.
func NewMongoDB(host string, port int, database, username, password string) *Command {
	args := []string{
		"--archive",
		"--host", host,
		"--port", portString(port),
		"--db", database,
	}
	if username != "" {
		args = append(args, "--username", username, "--password", password)
	}
	return &Command{kind: "mongodb", name: "mongodump", args: args}
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
