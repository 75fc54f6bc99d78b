// Package filestore implements the shared file primitive behind every
// record store: whole-file reads, locked appends and atomic rewrites of
// UTF-8 line-oriented files.
package filestore

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Store serialises writers per target file. Writes to the same path
// never interleave; a failed rewrite leaves the previous content on disk.
type Store struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New builds a Store. metrics may be nil.
func New(logger *slog.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		locks:   make(map[string]*sync.Mutex),
		logger:  logger,
		metrics: metrics,
	}
}

// pathLock returns the exclusive lock for one file path.
func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

// ReadAll returns every line of the file at path. A missing file is the
// documented empty-store state and yields an empty slice, not an error.
func (s *Store) ReadAll(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.metrics.RecordStoreFailure(path)
		return nil, shared.NewStorageError("read", path, err)
	}
	s.metrics.RecordStoreRead(path)
	text := strings.TrimSuffix(string(data), "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}

// AppendLine appends one line to the file at path, creating the file and
// its parent directory on demand.
func (s *Store) AppendLine(path, line string) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("append", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("append", path, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("append", path, err)
	}
	if err := f.Close(); err != nil {
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("append", path, err)
	}
	s.metrics.RecordStoreWrite(path)
	return nil
}

// OverwriteAll replaces the file at path with the given lines. The new
// content is written to a temporary file in the same directory and renamed
// over the target, so readers never observe partial data and a failed
// write keeps the previous content intact.
func (s *Store) OverwriteAll(path string, lines []string) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove temp store file", slog.String("path", tmpName), slog.Any("error", err))
		}
	}

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if _, err := tmp.WriteString(sb.String()); err != nil {
		cleanup()
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		s.metrics.RecordStoreFailure(path)
		return shared.NewStorageError("overwrite", path, err)
	}
	s.metrics.RecordStoreWrite(path)
	return nil
}
