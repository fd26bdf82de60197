package repository

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

//go:embed dados.json
var bundledDocument []byte

// MemoryStore keeps the directory in process memory. It is seeded once and
// loses its changes when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.RawRecord
	logger  *slog.Logger
}

// NewMemoryStore creates a memory store seeded with records. Records without
// an ID get one so they can be edited.
func NewMemoryStore(seed []domain.RawRecord, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	records := make([]domain.RawRecord, 0, len(seed))
	for _, rec := range seed {
		records = append(records, withID(rec))
	}
	return &MemoryStore{records: records, logger: logger}
}

// NewMemoryStoreFromFile seeds a memory store from a data document. An empty
// path uses the bundled document.
func NewMemoryStoreFromFile(path string, logger *slog.Logger) (*MemoryStore, error) {
	data := bundledDocument
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, &domain.TransportError{Op: "read seed", Err: err}
		}
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(doc.Employees, logger), nil
}

// LoadAll returns a copy of the records
func (s *MemoryStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RawRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

// Append prepends a record
func (s *MemoryStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	stored := withID(rec)

	s.mu.Lock()
	s.records = append([]domain.RawRecord{stored}, s.records...)
	s.mu.Unlock()

	s.logger.Debug("record appended", slog.Any("id", stored[domain.KeyID]))
	return cloneRecord(stored), nil
}

// Replace swaps the record with the given ID, keeping its position
func (s *MemoryStore) Replace(ctx context.Context, id string, rec domain.RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &domain.NotFoundError{ID: id}
	}
	replacement := cloneRecord(rec)
	replacement[domain.KeyID] = id
	s.records[i] = replacement
	return nil
}

// Remove deletes the record with the given ID
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return &domain.NotFoundError{ID: id}
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i, rec := range s.records {
		if recID, ok := rec.Field(domain.KeyID); ok && recID == id {
			return i
		}
	}
	return -1
}

func withID(rec domain.RawRecord) domain.RawRecord {
	out := cloneRecord(rec)
	if id, ok := out.Field(domain.KeyID); ok {
		out[domain.KeyID] = id
		return out
	}
	out[domain.KeyID] = uuid.NewString()
	return out
}
