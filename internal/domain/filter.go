package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the records matching every active predicate of q, in their
// original order. The input slice is not modified.
func Filter(records []Employee, q Query) []Employee {
	out := make([]Employee, 0, len(records))
	if q.IsZero() {
		return append(out, records...)
	}

	// Casers are stateful, one per call.
	fold := cases.Fold()
	text := fold.String(q.Text)

	for _, e := range records {
		if text != "" && !containsFolded(fold, text, e.Name, e.Sector, e.Unit) {
			continue
		}
		if !intMatches(q.BirthMonth, e.BirthMonth) ||
			!intMatches(q.HireMonth, e.HireMonth) ||
			!intMatches(q.TenureYears, e.TenureYears) {
			continue
		}
		if q.Sector != "" && e.Sector != q.Sector {
			continue
		}
		if q.Unit != "" && e.Unit != q.Unit {
			continue
		}
		out = append(out, e)
	}
	return out
}

func containsFolded(fold cases.Caser, needle string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

// intMatches treats a nil predicate as always true and a nil value as never
// matching an active predicate.
func intMatches(want, got *int) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// Options lists the values offered by dropdown filters.
type Options struct {
	Sectors []string `json:"sectors"`
	Units   []string `json:"units"`
	Months  []int    `json:"months"`
	Tenures []int    `json:"tenureYears"`
}

// FilterOptions collects the distinct sectors and units of records plus the
// month and tenure ranges.
func FilterOptions(records []Employee) Options {
	sectors := map[string]struct{}{}
	units := map[string]struct{}{}
	maxTenure := MaxTenureOption
	for _, e := range records {
		if e.Sector != "" {
			sectors[e.Sector] = struct{}{}
		}
		if e.Unit != "" {
			units[e.Unit] = struct{}{}
		}
		if e.TenureYears != nil && *e.TenureYears > maxTenure {
			maxTenure = *e.TenureYears
		}
	}

	opts := Options{
		Sectors: sortedKeys(sectors),
		Units:   sortedKeys(units),
		Months:  make([]int, 0, 12),
		Tenures: make([]int, 0, maxTenure+1),
	}
	for m := 1; m <= 12; m++ {
		opts.Months = append(opts.Months, m)
	}
	for y := 0; y <= maxTenure; y++ {
		opts.Tenures = append(opts.Tenures, y)
	}
	return opts
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
