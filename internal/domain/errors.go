package domain

import "fmt"

// TransportError reports an I/O or network failure talking to a store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a payload that did not parse as the expected structure.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// InvalidDateError reports a date field that could not be parsed.
type InvalidDateError struct {
	Field string
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q in field %s", e.Value, e.Field)
}

// PartialRecordError reports a delimited row whose column count does not match
// the header. Such rows are dropped.
type PartialRecordError struct {
	Line int
	Got  int
	Want int
}

func (e *PartialRecordError) Error() string {
	return fmt.Sprintf("line %d has %d fields, header has %d", e.Line, e.Got, e.Want)
}

// UnsupportedOperationError is returned by read-only stores on writes.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported by this store", e.Op)
}

// ValidationError reports a missing or out-of-range input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown record id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("employee %s not found", e.ID)
}
