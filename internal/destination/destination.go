// Package destination defines where a restore's rewritten bytes go:
// standard output, or a database engine's native restore tool run as a
// subprocess, each write spawning and tearing down its own process the
// way the original CLI did.
package destination

import (
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/brinkdb/snapctl/internal/errs"
)

// Destination is anything able to accept restored bytes, satisfying
// task.Writer.
type Destination interface {
	Init() error
	Write(data []byte) error
}

// Stdout writes restored bytes to the process's own stdout. No snapctl
// command uses it.
type Stdout struct{}

// NewStdout returns a Destination that streams to os.Stdout.
func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Init() error { return nil }

func (s *Stdout) Write(data []byte) error {
	_, err := os.Stdout.Write(data)
	if err != nil {
		return errs.WrapIO("writing to stdout", err)
	}
	return nil
}

// Command runs a database engine's native restore tool as a subprocess,
// spawning a fresh process per Write call and piping data to its stdin,
// matching the way the client tools themselves are invoked once per chunk.
type Command struct {
	name string
	args []string
	env  []string

	wipeCmd  string
	wipeArgs []string
	wipeEnv  []string
}

func (c *Command) Init() error {
	if _, err := exec.LookPath(c.name); err != nil {
		return errs.WrapIO(c.name+" not found on PATH", err)
	}
	if c.wipeCmd == "" {
		return nil
	}

	cmd := exec.Command(c.wipeCmd, c.wipeArgs...)
	cmd.Env = append(os.Environ(), c.wipeEnv...)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errs.WrapIO("wiping destination database before restore", err)
	}
	return nil
}

// Write spawns the restore tool, pipes data to its stdin, and waits for
// it to exit.
func (c *Command) Write(data []byte) error {
	cmd := exec.Command(c.name, c.args...)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errs.WrapIO("creating stdin pipe for "+c.name, err)
	}
	if err := cmd.Start(); err != nil {
		return errs.WrapIO("starting "+c.name, err)
	}

	if _, err := stdin.Write(data); err != nil {
		stdin.Close()
		_ = cmd.Wait()
		return errs.WrapIO("writing to "+c.name, err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return errs.WrapIO(c.name+" exited with an error", err)
	}
	return nil
}

// NewPostgres restores through psql, optionally wiping and recreating
// the public schema first so a restore starts from a clean database.
func NewPostgres(host string, port int, database, username, password string, wipeDatabase bool) *Command {
	sPort := portString(port)
	c := &Command{
		name: "psql",
		args: []string{"-h", host, "-p", sPort, "-d", database, "-U", username},
		env:  []string{"PGPASSWORD=" + password},
	}
	if wipeDatabase {
		c.wipeCmd = "psql"
		c.wipeArgs = []string{"-h", host, "-p", sPort, "-d", database, "-U", username, "-c", wipeDatabaseQuery(username)}
		c.wipeEnv = []string{"PGPASSWORD=" + password}
	}
	return c
}

func wipeDatabaseQuery(username string) string {
	return "DROP SCHEMA public CASCADE; CREATE SCHEMA public; " +
		`GRANT ALL ON SCHEMA public TO "` + username + `"; GRANT ALL ON SCHEMA public TO public;`
}

// NewMySQL restores through the mysql client.
func NewMySQL(host string, port int, database, username, password string) *Command {
	return &Command{
		name: "mysql",
		args: []string{"-h", host, "-P", portString(port), "-u", username, "-p" + password, database},
	}
}

// NewMongoDB restores through mongorestore, reading the archive format
// mongoarchive encodes.
func NewMongoDB(host string, port int, database, username, password string) *Command {
	args := []string{"--archive", "--host", host, "--port", portString(port), "--db", database}
	if username != "" {
		args = append(args, "--username", username, "--password", password)
	}
	return &Command{name: "mongorestore", args: args}
}

func portString(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
