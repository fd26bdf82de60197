package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/reliability/circuitbreaker"
)

// Consecutive failed fetches before the client stops calling the sheet for
// breakerCooldown.
const (
	breakerThreshold = 3
	breakerCooldown  = time.Minute
)

// Client downloads a spreadsheet published as CSV
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a new spreadsheet client
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := circuitbreaker.NewCircuitBreaker(breakerThreshold, breakerCooldown)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("sheet circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

// Fetch downloads and parses the sheet. Dropped rows are returned alongside
// the accepted ones. While the sheet keeps failing, Fetch fails fast with a
// TransportError wrapping circuitbreaker.ErrOpen.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawRecord, []*domain.PartialRecordError, error) {
	var (
		rows    []domain.RawRecord
		dropped []*domain.PartialRecordError
	)
	err := c.breaker.Do(func() error {
		var err error
		rows, dropped, err = c.fetch(ctx)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, nil, &domain.TransportError{Op: "sheet fetch", Err: err}
	}
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug("sheet fetched",
		slog.Int("rows", len(rows)),
		slog.Int("dropped", len(dropped)),
	)
	return rows, dropped, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.RawRecord, []*domain.PartialRecordError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, nil, &domain.TransportError{Op: "sheet request", Err: err}
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &domain.TransportError{Op: "sheet fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &domain.TransportError{
			Op:  "sheet fetch",
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	return Parse(resp.Body)
}

// Parse reads comma-separated text whose first line holds the headers. Rows
// with a different field count than the header are dropped and reported;
// blank rows are skipped.
func Parse(r io.Reader) ([]domain.RawRecord, []*domain.PartialRecordError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.RawRecord{}, nil, nil
	}
	if err != nil {
		return nil, nil, &domain.FormatError{Source: "csv", Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := []domain.RawRecord{}
	var dropped []*domain.PartialRecordError
	for {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &domain.FormatError{Source: "csv", Err: err}
		}

		if len(values) != len(header) {
			line, _ := reader.FieldPos(0)
			dropped = append(dropped, &domain.PartialRecordError{Line: line, Got: len(values), Want: len(header)})
			continue
		}

		row := make(domain.RawRecord, len(header))
		blank := true
		for i, h := range header {
			v := strings.TrimSpace(values[i])
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}
