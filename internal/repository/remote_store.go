package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

const employeesPath = "/api/employees"

// RemoteStore talks to a directory server over its HTTP API
type RemoteStore struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRemoteStore creates a client for the server at baseURL
func NewRemoteStore(baseURL string, timeout time.Duration, logger *slog.Logger) *RemoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// LoadAll issues GET /api/employees
func (s *RemoteStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+employeesPath, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "load", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	body, err := s.do(req, http.StatusOK, "load")
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var records []domain.RawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, &domain.FormatError{Source: "employees response", Err: err}
	}
	if records == nil {
		records = []domain.RawRecord{}
	}
	return records, nil
}

// Append issues POST /api/employees and returns the stored record
func (s *RemoteStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, &domain.FormatError{Source: "record", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+employeesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.TransportError{Op: "append", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req, http.StatusCreated, "append")
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Ping checks the server readiness endpoint
func (s *RemoteStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return err
	}
	_, err = s.do(req, http.StatusOK, "ping")
	return err
}

func (s *RemoteStore) do(req *http.Request, want int, op string) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusMethodNotAllowed && op == "append" {
		return nil, &domain.UnsupportedOperationError{Op: op}
	}
	if resp.StatusCode == http.StatusBadRequest {
		return nil, &domain.ValidationError{Field: "record", Reason: serverMessage(body)}
	}
	if resp.StatusCode != want {
		msg := strings.TrimSpace(string(body))
		s.logger.Debug("unexpected response",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", msg),
		)
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("server answered %d: %s", resp.StatusCode, msg)}
	}
	return body, nil
}

// serverMessage extracts the error text of a JSON error response
func serverMessage(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(body))
}
