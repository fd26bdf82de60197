package repository

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

// TotalKey is the aggregate count field inside the document's Total object.
const TotalKey = "TOTAL_FUNCIONARIOS"

// Document is the persisted JSON layout: the record array plus an aggregate
// object that holds at least the total count.
type Document struct {
	Employees []domain.RawRecord `json:"FUNCIONARIOS"`
	Total     map[string]any     `json:"Total"`
}

// Prepend inserts rec at the head and recomputes the total.
func (d *Document) Prepend(rec domain.RawRecord) {
	d.Employees = append([]domain.RawRecord{rec}, d.Employees...)
	d.recount()
}

func (d *Document) recount() {
	if d.Total == nil {
		d.Total = map[string]any{}
	}
	d.Total[TotalKey] = len(d.Employees)
}

func decodeDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &domain.FormatError{Source: "document", Err: err}
	}
	if doc.Employees == nil {
		return nil, &domain.FormatError{Source: "document", Err: errors.New("missing FUNCIONARIOS array")}
	}
	return &doc, nil
}

func encodeDocument(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &domain.FormatError{Source: "document", Err: err}
	}
	return append(data, '\n'), nil
}

func decodeRecord(data []byte) (domain.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec domain.RawRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, &domain.FormatError{Source: "record", Err: err}
	}
	if rec == nil {
		return nil, &domain.FormatError{Source: "record", Err: errors.New("null record")}
	}
	return rec, nil
}

func cloneRecord(rec domain.RawRecord) domain.RawRecord {
	out := make(domain.RawRecord, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
