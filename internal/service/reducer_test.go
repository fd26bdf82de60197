package service

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
)

func TestReduceDoesNotModifyInput(t *testing.T) {
	start := State{Records: []domain.Employee{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bruno"}}}
	snapshot := State{Records: []domain.Employee{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bruno"}}}

	Reduce(start, Event{Kind: EventAdded, Record: domain.Employee{ID: "c", Name: "Carlos"}})
	Reduce(start, Event{Kind: EventUpdated, Record: domain.Employee{ID: "a", Name: "Ana Souza"}})
	Reduce(start, Event{Kind: EventDeleted, ID: "b"})

	if diff := cmp.Diff(snapshot, start); diff != "" {
		t.Fatalf("input state changed (-want +got):\n%s", diff)
	}
}

func TestReduceAddedPrepends(t *testing.T) {
	s := Reduce(State{Records: []domain.Employee{{Name: "Ana"}}}, Event{Kind: EventAdded, Record: domain.Employee{Name: "Carlos"}})
	assert.Equal(t, []string{"Carlos", "Ana"}, names(s.Records))
	assert.EqualValues(t, 1, s.Version)
}

func TestReduceLoadFailedKeepsRecords(t *testing.T) {
	start := State{Records: []domain.Employee{{Name: "Ana"}}, Version: 3}
	s := Reduce(start, Event{Kind: EventLoadFailed, Err: errors.New("boom")})
	assert.Equal(t, []string{"Ana"}, names(s.Records))
	assert.Error(t, s.Err)

	s = Reduce(s, Event{Kind: EventLoaded, Records: nil})
	assert.NoError(t, s.Err)
	assert.NotNil(t, s.Records)
	assert.EqualValues(t, 5, s.Version)
}

func TestReduceLoadedDropsStaleEditTarget(t *testing.T) {
	s := Reduce(State{Editing: "gone"}, Event{Kind: EventLoaded, Records: []domain.Employee{{ID: "a"}}})
	assert.Empty(t, s.Editing)
}

func TestReduceQueryEvents(t *testing.T) {
	q := domain.Query{Text: "ana", Unit: "PV"}
	s := Reduce(State{}, Event{Kind: EventQueryChanged, Query: q})
	assert.Equal(t, q, s.Query)
	s = Reduce(s, Event{Kind: EventQueryCleared})
	assert.True(t, s.Query.IsZero())
}

func TestReduceUnknownEventIsNoop(t *testing.T) {
	start := State{Version: 7}
	assert.Equal(t, start, Reduce(start, Event{}))
}

func names(records []domain.Employee) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}
