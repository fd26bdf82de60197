package service

import (
	"slices"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

// State is the directory's application state. Values are never mutated in
// place; Reduce returns a new State.
type State struct {
	Records []domain.Employee
	Query   domain.Query
	Editing string
	Err     error
	Version uint64
}

// Intent is a user action handled by Directory.Dispatch
type Intent interface {
	intent()
}

// AddRecord persists a new record and prepends it
type AddRecord struct {
	Record domain.RawRecord
}

// UpdateQuery replaces the session query
type UpdateQuery struct {
	Query domain.Query
}

// ClearQuery resets every filter
type ClearQuery struct{}

// StartEdit marks a record as being edited
type StartEdit struct {
	ID string
}

// UpdateRecord replaces a record on stores that support editing
type UpdateRecord struct {
	ID     string
	Record domain.RawRecord
}

// DeleteRecord removes a record on stores that support editing
type DeleteRecord struct {
	ID string
}

func (AddRecord) intent()    {}
func (UpdateQuery) intent()  {}
func (ClearQuery) intent()   {}
func (StartEdit) intent()    {}
func (UpdateRecord) intent() {}
func (DeleteRecord) intent() {}

// EventKind identifies what changed
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventLoadFailed
	EventAdded
	EventUpdated
	EventDeleted
	EventEditStarted
	EventQueryChanged
	EventQueryCleared
)

// Event is the outcome of a load or an intent, ready to be reduced
type Event struct {
	Kind    EventKind
	Records []domain.Employee
	Record  domain.Employee
	ID      string
	Query   domain.Query
	Err     error
}

// Reduce computes the state that follows ev. It does not modify s. Unknown
// events leave the state, including its version, unchanged.
func Reduce(s State, ev Event) State {
	next := s
	switch ev.Kind {
	case EventLoaded:
		next.Records = ev.Records
		if next.Records == nil {
			next.Records = []domain.Employee{}
		}
		next.Err = nil
		if next.Editing != "" && indexOf(next.Records, next.Editing) < 0 {
			next.Editing = ""
		}
	case EventLoadFailed:
		next.Err = ev.Err
	case EventAdded:
		records := make([]domain.Employee, 0, len(s.Records)+1)
		records = append(records, ev.Record)
		next.Records = append(records, s.Records...)
	case EventUpdated:
		next.Records = slices.Clone(s.Records)
		if i := indexOf(next.Records, ev.Record.ID); i >= 0 {
			next.Records[i] = ev.Record
		}
		if next.Editing == ev.Record.ID {
			next.Editing = ""
		}
	case EventDeleted:
		next.Records = slices.DeleteFunc(slices.Clone(s.Records), func(e domain.Employee) bool {
			return e.ID == ev.ID
		})
		if next.Editing == ev.ID {
			next.Editing = ""
		}
	case EventEditStarted:
		next.Editing = ev.ID
	case EventQueryChanged:
		next.Query = ev.Query
	case EventQueryCleared:
		next.Query = domain.Query{}
	default:
		return s
	}
	next.Version = s.Version + 1
	return next
}

func indexOf(records []domain.Employee, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(records, func(e domain.Employee) bool { return e.ID == id })
}
