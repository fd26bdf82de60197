package repository

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/observability/metrics"
)

// sheetFetcher downloads and parses a published spreadsheet
type sheetFetcher interface {
	Fetch(ctx context.Context) ([]domain.RawRecord, []*domain.PartialRecordError, error)
}

// SheetStore is a read-only store over a spreadsheet CSV export
type SheetStore struct {
	sheet  sheetFetcher
	logger *slog.Logger
}

// NewSheetStore creates a new read-only spreadsheet store
func NewSheetStore(sheet sheetFetcher, logger *slog.Logger) *SheetStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetStore{sheet: sheet, logger: logger}
}

// LoadAll fetches the sheet; rows with a wrong column count are dropped
func (s *SheetStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	rows, dropped, err := s.sheet.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range dropped {
		s.logger.Debug("dropped partial row", slog.String("reason", d.Error()))
	}
	metrics.ObserveDroppedRows("partial", len(dropped))
	return rows, nil
}

// Append is not supported by spreadsheets
func (s *SheetStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	return nil, &domain.UnsupportedOperationError{Op: "append"}
}
