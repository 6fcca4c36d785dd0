// Package filex holds filesystem helpers for the SQLite databases.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLitePath returns the file a SQLite DSN points at. ok is false for
// in-memory databases.
func SQLitePath(dsn string) (path string, ok bool) {
	path = strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return "", false
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(path, ":memory:") {
		return "", false
	}
	return path, true
}

// EnsureParentDir creates the directory holding the database file of dsn
// and returns it. In-memory DSNs are left alone and yield "".
func EnsureParentDir(dsn string) (string, error) {
	path, ok := SQLitePath(dsn)
	if !ok {
		return "", nil
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
