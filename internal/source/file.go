package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"gopkg.in/yaml.v3"
)

// DefaultLockTimeout bounds how long a read or write waits for the file lock.
const DefaultLockTimeout = 10 * time.Second

// FileLoader reads code master data from a YAML (or JSON) document. Every
// load reads the file afresh under a shared lock, so a reload picks up a
// replaced file.
type FileLoader struct {
	path        string
	lockPath    string
	lockTimeout time.Duration
	logger      *slog.Logger
}

// FileOption configures a FileLoader.
type FileOption func(*FileLoader)

// WithLockTimeout sets how long to wait for the file lock.
func WithLockTimeout(timeout time.Duration) FileOption {
	return func(l *FileLoader) {
		if timeout > 0 {
			l.lockTimeout = timeout
		}
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(l *FileLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewFileLoader creates a loader for the document at path.
func NewFileLoader(path string, opts ...FileOption) *FileLoader {
	l := &FileLoader{
		path:        path,
		lockPath:    lockPathFor(path),
		lockTimeout: DefaultLockTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the document path.
func (l *FileLoader) Path() string {
	return l.path
}

// Load returns the rows of one codeset. A codeset missing from the document
// yields no rows.
func (l *FileLoader) Load(ctx context.Context, codesetID string) ([]codes.Row, error) {
	doc, err := l.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.codesetRows(codesetID), nil
}

// LoadAll returns the rows of every codeset in the document.
func (l *FileLoader) LoadAll(ctx context.Context) ([]codes.Row, error) {
	doc, err := l.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Rows(), nil
}

// newLock returns a lock on its own file descriptor. flock(2) locks belong to
// the descriptor, so concurrent reads and writes must not share one.
func (l *FileLoader) newLock() *FileLock {
	return NewFileLock(l.lockPath)
}

// Read parses the document under the shared lock.
func (l *FileLoader) Read(ctx context.Context) (*Document, error) {
	lock := l.newLock()
	if err := lock.RLock(ctx, l.lockTimeout); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read code file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse code file %s: %w", l.path, err)
	}
	if doc.Codesets == nil {
		doc.Codesets = make(map[string]DocumentCodeset)
	}

	l.logger.DebugContext(ctx, "Code file read", "path", l.path, "codesets", len(doc.Codesets))
	return &doc, nil
}

// Write replaces the document atomically under the exclusive lock.
func (l *FileLoader) Write(ctx context.Context, doc *Document) error {
	data, err := l.marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal code file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create code file directory: %w", err)
	}

	lock := l.newLock()
	if err := lock.Lock(ctx, l.lockTimeout); err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	defer func() { _ = lock.Unlock() }()

	tempPath := l.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write code file temp file: %w", err)
	}
	if err := os.Rename(tempPath, l.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename code file: %w", err)
	}
	return nil
}

// marshal encodes the document as JSON for a .json path and as YAML otherwise.
func (l *FileLoader) marshal(doc *Document) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(l.path), ".json") {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(doc)
}

// Import replaces the document with the rows.
func (l *FileLoader) Import(ctx context.Context, rows []codes.Row) error {
	doc, err := NewDocument(rows)
	if err != nil {
		return err
	}
	return l.Write(ctx, doc)
}

// Close is a no-op; FileLoader holds no open resources between loads.
func (l *FileLoader) Close() error {
	return nil
}
