package source

import (
	"bufio"
	"io"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/brinkdb/snapctl/internal/sqlstmt"
	"github.com/brinkdb/snapctl/internal/token"
)

// PrintSchema streams src and writes every statement that isn't an
// INSERT to w: CREATE TABLE, ALTER TABLE, indexes, sequences, and
// whatever else a dump's DDL preamble carries, for `source schema` to
// show a database's shape without its row data.
func PrintSchema(src Source, w io.Writer) error {
	if err := src.Init(); err != nil {
		return err
	}
	r, err := src.Reader()
	if err != nil {
		return err
	}
	return writeSchemaStatements(r, w)
}

// writeSchemaStatements scans r for `;`-terminated statements and copies
// every non-INSERT one to w. Shared by PrintSchema and File's subset path,
// which re-assembles a narrowed dump from the schema plus a row subset.
func writeSchemaStatements(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var buf strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		if !strings.HasSuffix(trimmed, ";") {
			continue
		}

		stmt := buf.String()
		buf.Reset()

		if isSchemaStatement(stmt) {
			if _, err := io.WriteString(w, stmt+"\n"); err != nil {
				return errs.WrapIO("writing schema output", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.WrapIO("reading source stream", err)
	}
	return nil
}

func isSchemaStatement(stmt string) bool {
	tokens, err := token.New(stmt).Tokenize()
	if err != nil {
		return false
	}
	if _, ok := sqlstmt.IsInsertInto(tokens); ok {
		return false
	}
	return true
}
