package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Legacy column keys used by the bundled data document, the HTTP API and the
// spreadsheet export.
const (
	KeyID          = "ID"
	KeyName        = "NOME"
	KeySector      = "SETOR"
	KeyUnit        = "UND"
	KeyAge         = "IDADE"
	KeyBirthMonth  = "MES NASC"
	KeyBirthDate   = "DATA NASC"
	KeyTenureYears = "TEMPO DE UNIMAKE"
	KeyHireMonth   = "MES ADM."
	KeyHireDate    = "DATA ADM."
)

// RawRecord is an employee entry as read from a source, keyed by column header.
type RawRecord map[string]any

// Employee is the canonical record. Derived fields are nil when the date they
// come from is absent.
type Employee struct {
	ID          string
	Name        string
	Sector      string
	Unit        string
	BirthDate   string // DD/MM/YYYY
	BirthMonth  *int
	Age         *int
	HireDate    string // DD/MM/YYYY
	HireMonth   *int
	TenureYears *int
	Extra       map[string]string
}

var fieldAliases = map[string][]string{
	KeyID:          {"id"},
	KeyName:        {"nome", "funcionarios", "name"},
	KeySector:      {"setor", "sector"},
	KeyUnit:        {"und", "unit"},
	KeyAge:         {"idade", "age"},
	KeyBirthMonth:  {"mes nasc", "birthmonth"},
	KeyBirthDate:   {"data nasc", "birthdate"},
	KeyTenureYears: {"tempo de unimake", "tenureyears"},
	KeyHireMonth:   {"mes adm.", "mes adm", "hiremonth"},
	KeyHireDate:    {"data adm.", "data adm", "hiredate"},
}

// canonicalKey maps a header to one of the Key* constants, or "" when the
// header is not a known field.
func canonicalKey(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	for key, aliases := range fieldAliases {
		for _, a := range aliases {
			if h == a {
				return key
			}
		}
	}
	return ""
}

// Field returns the value of a known field as text, matching headers
// case-insensitively. ok is false when the field is absent or blank. When
// several headers name the same field, aliases are tried in the order of
// fieldAliases and equal headers in sorted order.
func (r RawRecord) Field(key string) (string, bool) {
	for _, alias := range fieldAliases[key] {
		var headers []string
		for header := range r {
			if strings.ToLower(strings.TrimSpace(header)) == alias {
				headers = append(headers, header)
			}
		}
		slices.Sort(headers)
		for _, header := range headers {
			if s := strings.TrimSpace(stringify(r[header])); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// extras returns the columns that are not known fields.
func (r RawRecord) extras() map[string]string {
	var out map[string]string
	for header, v := range r {
		if canonicalKey(header) != "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.TrimSpace(header)] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Raw converts the employee back to a RawRecord keyed by the legacy columns.
func (e Employee) Raw() RawRecord {
	r := RawRecord{
		KeyName:   e.Name,
		KeySector: e.Sector,
		KeyUnit:   e.Unit,
	}
	for k, v := range e.Extra {
		r[k] = v
	}
	if e.ID != "" {
		r[KeyID] = e.ID
	}
	if e.BirthDate != "" {
		r[KeyBirthDate] = e.BirthDate
	}
	if e.HireDate != "" {
		r[KeyHireDate] = e.HireDate
	}
	setInt(r, KeyAge, e.Age)
	setInt(r, KeyBirthMonth, e.BirthMonth)
	setInt(r, KeyTenureYears, e.TenureYears)
	setInt(r, KeyHireMonth, e.HireMonth)
	return r
}

func setInt(r RawRecord, key string, v *int) {
	if v != nil {
		r[key] = *v
	}
}

// MarshalJSON encodes the employee with the legacy column keys.
func (e Employee) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Raw())
}

// UnmarshalJSON decodes a record rendered by MarshalJSON. Derived fields are
// taken as given, not recomputed.
func (e *Employee) UnmarshalJSON(data []byte) error {
	var raw RawRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := Employee{Extra: raw.extras()}
	out.ID, _ = raw.Field(KeyID)
	out.Name, _ = raw.Field(KeyName)
	out.Sector, _ = raw.Field(KeySector)
	out.Unit, _ = raw.Field(KeyUnit)
	out.BirthDate, _ = raw.Field(KeyBirthDate)
	out.HireDate, _ = raw.Field(KeyHireDate)
	out.Age = raw.intField(KeyAge)
	out.BirthMonth = raw.intField(KeyBirthMonth)
	out.TenureYears = raw.intField(KeyTenureYears)
	out.HireMonth = raw.intField(KeyHireMonth)
	*e = out
	return nil
}

func (r RawRecord) intField(key string) *int {
	s, ok := r.Field(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// Cell renders an optional integer for display; nil renders empty.
func Cell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// IntPtr is a small helper for building queries and fixtures.
func IntPtr(v int) *int {
	return &v
}
