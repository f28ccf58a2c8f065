package persist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Backend names a KV implementation.
type Backend string

const (
	// BackendFile stores each key as a JSON file.
	BackendFile Backend = "file"
	// BackendSQLite stores keys in a SQLite database.
	BackendSQLite Backend = "sqlite"
	// BackendMemory keeps values in process memory only.
	BackendMemory Backend = "memory"
)

// Open constructs the configured backend. For the file backend path is a
// directory; for sqlite it is the database file, defaulting to
// <stateDir>/codepane.db. The returned closer is never nil.
func Open(backend Backend, stateDir, path string, logger pslog.Logger) (KV, io.Closer, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(string(backend)))) {
	case BackendFile, "":
		dir := path
		if strings.TrimSpace(dir) == "" {
			dir = stateDir
		}
		store, err := NewFileStoreWithLogger(dir, logger)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return store, nopCloser{}, nil
	case BackendSQLite:
		dbPath := path
		if strings.TrimSpace(dbPath) == "" {
			dbPath = filepath.Join(stateDir, "codepane.db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, nopCloser{}, err
		}
		store, err := OpenSQLiteStore(dbPath, logger)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return store, store, nil
	case BackendMemory:
		return NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unsupported storage backend %q", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
