package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/repository"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
)

var fixedNow = time.Date(2025, 7, 6, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDirectory(store domain.Store) *Directory {
	d := NewDirectory(store, testLogger(), &config.Config{Location: time.UTC, ViewCacheTTL: time.Minute})
	d.SetClock(func() time.Time { return fixedNow })
	return d
}

// readOnlyStore serves a fixed collection and rejects appends, like a
// published spreadsheet.
type readOnlyStore struct {
	records []domain.RawRecord
	err     error
	calls   atomic.Int32
	gate    chan struct{}
}

func (s *readOnlyStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.records, s.err
}

func (s *readOnlyStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	return nil, &domain.UnsupportedOperationError{Op: "append"}
}

func TestAddThenLoadShowsRecordFirst(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]domain.RawRecord{
		{"NOME": "Ana Souza", "SETOR": "ti", "UND": "sp"},
	}, testLogger())
	d := newTestDirectory(store)
	require.NoError(t, d.Load(ctx, "test"))

	added, err := d.Add(ctx, domain.RawRecord{"NOME": "Carlos", "UND": "pv", "DATA NASC": "2000-07-10"})
	require.NoError(t, err)
	assert.Equal(t, "PV", added.Unit)
	assert.Equal(t, 24, *added.Age)
	assert.NotEmpty(t, added.ID)

	require.NoError(t, d.Load(ctx, "test"))
	view := d.View(domain.Query{})
	require.Len(t, view.Records, 2)
	assert.Equal(t, "Carlos", view.Records[0].Name)
	assert.Equal(t, "PV", view.Records[0].Unit)
	assert.Equal(t, "10/07/2000", view.Records[0].BirthDate)
}

func TestAddOnReadOnlyStoreLeavesCollection(t *testing.T) {
	ctx := context.Background()
	store := &readOnlyStore{records: []domain.RawRecord{{"FUNCIONARIOS": "Ana"}, {"FUNCIONARIOS": "Bruno"}}}
	d := newTestDirectory(store)
	require.NoError(t, d.Load(ctx, "test"))
	before := d.Snapshot()

	_, err := d.Dispatch(ctx, AddRecord{Record: domain.RawRecord{"NOME": "Carlos"}})
	var uErr *domain.UnsupportedOperationError
	require.True(t, errors.As(err, &uErr))

	after := d.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Records, 2)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	d := newTestDirectory(repository.NewMemoryStore(nil, testLogger()))

	_, err := d.Add(ctx, domain.RawRecord{"NOME": "Carlos", "DATA ADM.": "ontem"})
	var dateErr *domain.InvalidDateError
	assert.True(t, errors.As(err, &dateErr))

	_, err = d.Add(ctx, domain.RawRecord{"SETOR": "TI"})
	var vErr *domain.ValidationError
	assert.True(t, errors.As(err, &vErr))

	assert.Empty(t, d.Snapshot().Records)
}

func TestFailedLoadKeepsPreviousCollection(t *testing.T) {
	ctx := context.Background()
	store := &readOnlyStore{records: []domain.RawRecord{{"NOME": "Ana"}}}
	d := newTestDirectory(store)
	require.NoError(t, d.Load(ctx, "test"))

	store.err = &domain.TransportError{Op: "fetch", Err: errors.New("timeout")}
	require.Error(t, d.Load(ctx, "test"))

	view := d.View(domain.Query{})
	assert.Len(t, view.Records, 1)
	var tErr *domain.TransportError
	assert.True(t, errors.As(view.Err, &tErr))

	store.err = nil
	require.NoError(t, d.Load(ctx, "test"))
	assert.NoError(t, d.View(domain.Query{}).Err)
}

func TestLoadDropsRecordsThatFailNormalization(t *testing.T) {
	store := &readOnlyStore{records: []domain.RawRecord{
		{"NOME": "Ana"},
		{"NOME": "Bruno", "DATA NASC": "31/02/1990"},
		{"SETOR": "RH"},
	}}
	d := newTestDirectory(store)
	require.NoError(t, d.Load(context.Background(), "test"))

	records := d.Snapshot().Records
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0].Name)
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	store := &readOnlyStore{records: []domain.RawRecord{{"NOME": "Ana"}}, gate: make(chan struct{})}
	d := newTestDirectory(store)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Load(context.Background(), "test"))
		}()
	}
	// Let every caller reach the in-flight guard before releasing the load.
	time.Sleep(50 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.Less(t, store.calls.Load(), int32(5))
}

func TestQueryIntents(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]domain.RawRecord{
		{"NOME": "Ana Souza", "SETOR": "TI"},
		{"NOME": "Bruno", "SETOR": "RH"},
		{"NOME": "Carla", "SETOR": "BANANA"},
	}, testLogger())
	d := newTestDirectory(store)
	require.NoError(t, d.Load(ctx, "test"))

	_, err := d.Dispatch(ctx, UpdateQuery{Query: domain.Query{Text: "ana"}})
	require.NoError(t, err)
	view := d.CurrentView()
	require.Len(t, view.Records, 2)
	assert.Equal(t, "Ana Souza", view.Records[0].Name)
	assert.Equal(t, "Carla", view.Records[1].Name)
	assert.Equal(t, 3, view.Total)

	// Cached views are copies.
	view.Records[0].Name = "mutated"
	assert.Equal(t, "Ana Souza", d.CurrentView().Records[0].Name)

	_, err = d.Dispatch(ctx, ClearQuery{})
	require.NoError(t, err)
	assert.Len(t, d.CurrentView().Records, 3)
}

func TestEditIntents(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]domain.RawRecord{{"NOME": "Ana"}, {"NOME": "Bruno"}}, testLogger())
	d := newTestDirectory(store)
	require.NoError(t, d.Load(ctx, "test"))
	id := d.Snapshot().Records[1].ID

	state, err := d.Dispatch(ctx, StartEdit{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, state.Editing)

	state, err = d.Dispatch(ctx, UpdateRecord{ID: id, Record: domain.RawRecord{"NOME": "Bruno Lima", "UND": "sp"}})
	require.NoError(t, err)
	assert.Empty(t, state.Editing)
	assert.Equal(t, "Bruno Lima", state.Records[1].Name)
	assert.Equal(t, "SP", state.Records[1].Unit)

	state, err = d.Dispatch(ctx, DeleteRecord{ID: id})
	require.NoError(t, err)
	require.Len(t, state.Records, 1)

	_, err = d.Dispatch(ctx, StartEdit{ID: "missing"})
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestEditIntentsNeedEditor(t *testing.T) {
	d := newTestDirectory(&readOnlyStore{})
	_, err := d.Dispatch(context.Background(), DeleteRecord{ID: "x"})
	var uErr *domain.UnsupportedOperationError
	require.True(t, errors.As(err, &uErr))
	assert.Equal(t, "delete", uErr.Op)
}

func TestSubscribersAreNotified(t *testing.T) {
	d := newTestDirectory(&readOnlyStore{records: []domain.RawRecord{{"NOME": "Ana"}}})
	ch, cancel := d.Subscribe()
	defer cancel()

	require.NoError(t, d.Load(context.Background(), "test"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected notification after load")
	}
}

// contextStore fails loads whose context is done, like a network store.
type contextStore struct {
	domain.Store
}

func (s contextStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.TransportError{Op: "load", Err: err}
	}
	return s.Store.LoadAll(ctx)
}

func TestCancelledCallerDoesNotFailTheLoad(t *testing.T) {
	store := contextStore{repository.NewMemoryStore([]domain.RawRecord{{"NOME": "Ana"}}, testLogger())}
	d := newTestDirectory(store)
	require.NoError(t, d.Load(context.Background(), "test"))
	before := d.Snapshot().Version

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Load(ctx, "request")
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	require.Eventually(t, func() bool {
		return d.Snapshot().Version > before
	}, time.Second, 5*time.Millisecond)
	v := d.CurrentView()
	assert.NoError(t, v.Err)
	assert.Len(t, v.Records, 1)
}

// pausingStore holds LoadAll after reading until release is closed.
type pausingStore struct {
	domain.Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *pausingStore) LoadAll(ctx context.Context) ([]domain.RawRecord, error) {
	raws, err := s.Store.LoadAll(ctx)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return raws, err
}

func (s *pausingStore) Append(ctx context.Context, rec domain.RawRecord) (domain.RawRecord, error) {
	return s.Store.Append(ctx, rec)
}

func TestAddDuringLoadIsNotLost(t *testing.T) {
	ctx := context.Background()
	store := &pausingStore{
		Store:   repository.NewMemoryStore([]domain.RawRecord{{"NOME": "Ana"}}, testLogger()),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	d := newTestDirectory(store)

	loaded := make(chan error, 1)
	go func() { loaded <- d.Load(ctx, "refresh") }()
	<-store.read

	added := make(chan error, 1)
	go func() {
		_, err := d.Add(ctx, domain.RawRecord{"NOME": "Carlos", "UND": "pv"})
		added <- err
	}()

	// Let Add reach the store before the load commits.
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	require.NoError(t, <-loaded)
	require.NoError(t, <-added)

	records := d.CurrentView().Records
	require.Len(t, records, 2)
	assert.Equal(t, "Carlos", records[0].Name)
	assert.Equal(t, "Ana", records[1].Name)
}
