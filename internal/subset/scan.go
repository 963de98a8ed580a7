package subset

import (
	"bufio"
	"io"
	"strings"
)

// scanStatements reads r and invokes onStatement once per semicolon-
// terminated statement, in source order, stopping early if onStatement
// returns false. Lines whose trimmed form starts with "--" are dropped
// whole, matching the one-statement-per-line layout pg_dump, mysqldump, and
// mongodump's schema companion files actually emit.
func scanStatements(r io.Reader, onStatement func(stmt string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var buf strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		if strings.HasSuffix(trimmed, ";") {
			stmt := buf.String()
			buf.Reset()
			if !onStatement(stmt) {
				return scanner.Err()
			}
		}
	}
	return scanner.Err()
}
