package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query is the set of active filter predicates. Zero-valued fields are
// inactive.
type Query struct {
	Text        string
	BirthMonth  *int
	HireMonth   *int
	TenureYears *int
	Sector      string
	Unit        string
}

// MaxTenureOption is the largest tenure offered by FilterOptions unless the
// data holds a longer one.
const MaxTenureOption = 40

// IsZero reports whether no predicate is active.
func (q Query) IsZero() bool {
	return q.Text == "" && q.BirthMonth == nil && q.HireMonth == nil &&
		q.TenureYears == nil && q.Sector == "" && q.Unit == ""
}

// Key is a canonical encoding of the query, stable across equal queries.
func (q Query) Key() string {
	return fmt.Sprintf("t=%q|bm=%s|hm=%s|ty=%s|s=%q|u=%q",
		q.Text, Cell(q.BirthMonth), Cell(q.HireMonth), Cell(q.TenureYears), q.Sector, q.Unit)
}

// Values encodes the query as URL parameters understood by ParseQuery.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.BirthMonth != nil {
		v.Set("birthMonth", strconv.Itoa(*q.BirthMonth))
	}
	if q.HireMonth != nil {
		v.Set("hireMonth", strconv.Itoa(*q.HireMonth))
	}
	if q.TenureYears != nil {
		v.Set("tenureYears", strconv.Itoa(*q.TenureYears))
	}
	if q.Sector != "" {
		v.Set("sector", q.Sector)
	}
	if q.Unit != "" {
		v.Set("unit", q.Unit)
	}
	return v
}

// ParseQuery reads a query from URL parameters. Blank parameters are inactive.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Text:   v.Get("q"),
		Sector: strings.TrimSpace(v.Get("sector")),
		Unit:   strings.TrimSpace(v.Get("unit")),
	}
	if q.Text == "" {
		q.Text = v.Get("text")
	}

	var err error
	if q.BirthMonth, err = parseOptionalInt(v, "birthMonth", 1, 12); err != nil {
		return Query{}, err
	}
	if q.HireMonth, err = parseOptionalInt(v, "hireMonth", 1, 12); err != nil {
		return Query{}, err
	}
	if q.TenureYears, err = parseOptionalInt(v, "tenureYears", 0, -1); err != nil {
		return Query{}, err
	}
	return q, nil
}

// parseOptionalInt parses v[name] within [lo, hi]; hi < 0 means unbounded.
func parseOptionalInt(v url.Values, name string, lo, hi int) (*int, error) {
	s := strings.TrimSpace(v.Get(name))
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Field: name, Reason: "must be an integer"}
	}
	if n < lo || (hi >= 0 && n > hi) {
		return nil, &ValidationError{Field: name, Reason: "out of range"}
	}
	return &n, nil
}
