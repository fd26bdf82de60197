package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

const (
	createEmployeesTableSQL = `
		CREATE TABLE IF NOT EXISTS employees (
			id         BIGSERIAL PRIMARY KEY,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	createTotalsTableSQL = `
		CREATE TABLE IF NOT EXISTS employee_totals (
			id         SMALLINT PRIMARY KEY,
			total      BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	seedTotalsSQL = `
		INSERT INTO employee_totals (id, total) VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING`

	selectEmployeesSQL = `SELECT payload FROM employees ORDER BY id DESC`

	insertEmployeeSQL = `INSERT INTO employees (payload) VALUES ($1)`

	recountTotalsSQL = `
		UPDATE employee_totals
		SET total = (SELECT count(*) FROM employees), updated_at = now()
		WHERE id = 1`
)

// PostgresStore keeps records as JSONB rows; the newest row is listed first
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureTables creates the tables when they do not exist yet
func (s *PostgresStore) EnsureTables(ctx context.Context) error {
	for _, stmt := range []string{createEmployeesTableSQL, createTotalsTableSQL, seedTotalsSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare tables: %w", err)
		}
	}
	return nil
}

// LoadAll returns every record, newest first
func (s *PostgresStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectEmployeesSQL)
	if err != nil {
		return nil, &domain.TransportError{Op: "select employees", Err: err}
	}
	defer rows.Close()

	records := []domain.RawRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &domain.TransportError{Op: "scan employee", Err: err}
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.TransportError{Op: "select employees", Err: err}
	}
	return records, nil
}

// Append inserts the record and recomputes the total in one transaction
func (s *PostgresStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, &domain.FormatError{Source: "record", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertEmployeeSQL, payload); err != nil {
		s.logger.Error("failed to insert employee", slog.String("error", err.Error()))
		return nil, &domain.TransportError{Op: "insert employee", Err: err}
	}
	if _, err := tx.ExecContext(ctx, recountTotalsSQL); err != nil {
		return nil, &domain.TransportError{Op: "recount employees", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &domain.TransportError{Op: "commit", Err: err}
	}

	return cloneRecord(rec), nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
