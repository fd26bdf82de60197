package domain

import (
	"strings"
	"time"
)

// DisplayDateLayout is the day/month/year layout used for every rendered date.
const DisplayDateLayout = "02/01/2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2/1/2006",
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and day/month/year dates.
func ParseDate(field, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &InvalidDateError{Field: field, Value: value}
}

// CompletedYears counts whole years between from and now. It is zero when from
// lies in the future.
func CompletedYears(from, now time.Time) int {
	years := now.Year() - from.Year()
	if now.Month() < from.Month() || (now.Month() == from.Month() && now.Day() < from.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Normalize converts a raw record into a canonical Employee. Derived fields are
// always recomputed against now; values supplied in the raw record are ignored.
func Normalize(raw RawRecord, now time.Time) (Employee, error) {
	name, ok := raw.Field(KeyName)
	if !ok {
		return Employee{}, &ValidationError{Field: "name", Reason: "is required"}
	}

	e := Employee{Name: name, Extra: raw.extras()}
	e.ID, _ = raw.Field(KeyID)
	if s, ok := raw.Field(KeySector); ok {
		e.Sector = strings.ToUpper(s)
	}
	if s, ok := raw.Field(KeyUnit); ok {
		e.Unit = strings.ToUpper(s)
	}

	if s, ok := raw.Field(KeyBirthDate); ok {
		birth, err := ParseDate(KeyBirthDate, s)
		if err != nil {
			return Employee{}, err
		}
		e.BirthDate = birth.Format(DisplayDateLayout)
		e.BirthMonth = IntPtr(int(birth.Month()))
		e.Age = IntPtr(CompletedYears(birth, now))
	}

	if s, ok := raw.Field(KeyHireDate); ok {
		hire, err := ParseDate(KeyHireDate, s)
		if err != nil {
			return Employee{}, err
		}
		e.HireDate = hire.Format(DisplayDateLayout)
		e.HireMonth = IntPtr(int(hire.Month()))
		e.TenureYears = IntPtr(CompletedYears(hire, now))
	}

	return e, nil
}
