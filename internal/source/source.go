// Package source provides the loaders that feed the code store: a YAML
// document on disk and a SQLite database.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
)

// Source kinds as used in configuration.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Source is a loader that can also be written to and must be closed.
type Source interface {
	codes.Loader
	Import(ctx context.Context, rows []codes.Row) error
	Close() error
}

// Open opens a source of the given kind. lockTimeout applies to file sources only.
func Open(ctx context.Context, kind, path string, lockTimeout time.Duration, logger *slog.Logger) (Source, error) {
	if path == "" {
		return nil, fmt.Errorf("source path is required")
	}
	switch kind {
	case KindFile:
		return NewFileLoader(path, WithLockTimeout(lockTimeout), WithFileLogger(logger)), nil
	case KindSQLite:
		return OpenSQLite(ctx, path, logger)
	default:
		return nil, fmt.Errorf("unknown source kind %q (want %q or %q)", kind, KindFile, KindSQLite)
	}
}

// KindForPath guesses the source kind from a file extension: YAML and JSON
// documents are file sources, anything else is a SQLite database.
func KindForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return KindFile
	default:
		return KindSQLite
	}
}
