package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

const watchDebounce = 200 * time.Millisecond

// FileStore persists the directory as a single JSON document that is
// rewritten in full on every append.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a store backed by the document at path
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// LoadAll reads the document from disk
func (s *FileStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Employees, nil
}

// Append prepends the record, recomputes the total and rewrites the document
func (s *FileStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	stored := cloneRecord(rec)
	doc.Prepend(stored)

	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return nil, &domain.TransportError{Op: "write document", Err: err}
	}

	s.logger.Info("record appended",
		slog.String("path", s.path),
		slog.Int("total", len(doc.Employees)),
	)
	return stored, nil
}

// Ping checks that the document is readable
func (s *FileStore) Ping(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("data file not readable: %w", err)
	}
	return f.Close()
}

func (s *FileStore) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &domain.TransportError{Op: "read document", Err: err}
	}
	return decodeDocument(data)
}

// Watch calls onChange after the document is modified on disk, debouncing
// bursts of events. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	s.logger.Info("watching data file", slog.String("path", s.path))

	target := filepath.Clean(s.path)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("data file watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			onChange()
		}
	}
}
