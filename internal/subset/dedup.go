package subset

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

// DoesLineExistAndSet reports whether line already appears in the dedup
// file for group under dir, appending it (trimmed) when it does not. Each
// group gets its own file so concurrent groups never contend on the same
// inode.
func DoesLineExistAndSet(dir, group, line string) (bool, error) {
	exists, err := DoesLineExist(dir, group, line)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	path := filepath.Join(dir, group)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return false, errs.WrapIO("opening dedup file", err)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.TrimSpace(line) + "\n"); err != nil {
		return false, errs.WrapIO("appending to dedup file", err)
	}
	return false, nil
}

// DoesLineExist reports whether line (compared trimmed) already appears in
// group's dedup file under dir. The file is created empty if absent.
func DoesLineExist(dir, group, line string) (bool, error) {
	path := filepath.Join(dir, group)
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, errs.WrapIO("opening dedup file", err)
		}
		created, cerr := os.Create(path)
		if cerr != nil {
			return false, errs.WrapIO("creating dedup file", cerr)
		}
		created.Close()
		return false, nil
	}
	defer f.Close()

	want := strings.TrimSpace(line)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == want {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, errs.WrapIO("reading dedup file", err)
	}
	return false, nil
}
