package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/observability/metrics"
	"github.com/aryan0dhankhar/staffdir/pkg/cache"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
)

const defaultLoadTimeout = 30 * time.Second

// Clock returns the current time. Age and tenure are computed against it.
type Clock func() time.Time

// Directory owns the loaded collection and the session state around it
type Directory struct {
	store       domain.Store
	logger      *slog.Logger
	clock       Clock
	loadTimeout time.Duration

	// writeMu orders store reads and writes with the commits that follow
	// them, so a load never commits a collection older than a mutation.
	writeMu sync.Mutex

	mu    sync.RWMutex
	state State

	loads singleflight.Group
	views *cache.Cache[[]domain.Employee]

	subMu       sync.Mutex
	subscribers map[int]chan struct{}
	nextSub     int
}

// View is what renderers display: the filtered records plus the error marker
// of the last failed load, if any.
type View struct {
	Records []domain.Employee
	Query   domain.Query
	Total   int
	Editing string
	Err     error
	Version uint64
}

// NewDirectory creates a directory controller over store
func NewDirectory(store domain.Store, logger *slog.Logger, cfg *config.Config) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	loc := time.Local
	var ttl time.Duration
	loadTimeout := defaultLoadTimeout
	if cfg != nil {
		if cfg.Location != nil {
			loc = cfg.Location
		}
		ttl = cfg.ViewCacheTTL
		if cfg.HTTPTimeout > 0 {
			loadTimeout = cfg.HTTPTimeout
		}
	}
	return &Directory{
		store:       store,
		logger:      logger,
		clock:       func() time.Time { return time.Now().In(loc) },
		loadTimeout: loadTimeout,
		state:       State{Records: []domain.Employee{}},
		views:       cache.New[[]domain.Employee](ttl),
		subscribers: map[int]chan struct{}{},
	}
}

// SetClock replaces the clock used for normalization
func (d *Directory) SetClock(clock Clock) {
	d.clock = clock
}

// Store returns the backing store
func (d *Directory) Store() domain.Store {
	return d.store
}

// Snapshot returns the current state
func (d *Directory) Snapshot() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Load reads every record from the store and replaces the collection.
// Concurrent calls share one in-flight load. On failure the previous
// collection is kept and the error is recorded in the state.
//
// The shared load is detached from ctx and bounded by the load timeout: a
// caller that goes away gets ctx.Err() while the load finishes for the others.
func (d *Directory) Load(ctx context.Context, source string) error {
	results := d.loads.DoChan("load", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadTimeout)
		defer cancel()
		return nil, d.load(loadCtx, source)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.Shared {
			d.logger.Debug("joined in-flight load", slog.String("source", source))
		}
		return res.Err
	}
}

func (d *Directory) load(ctx context.Context, source string) error {
	ctx, span := otel.Tracer("staffdir/service").Start(ctx, "directory.Load")
	defer span.End()
	span.SetAttributes(attribute.String("load.source", source))

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	start := time.Now()
	raws, err := d.store.LoadAll(ctx)
	if err != nil {
		metrics.ObserveLoad(source, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("failed to load directory",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		d.commit(Event{Kind: EventLoadFailed, Err: err})
		return err
	}

	now := d.clock()
	records := make([]domain.Employee, 0, len(raws))
	dropped := 0
	for i, raw := range raws {
		e, err := domain.Normalize(raw, now)
		if err != nil {
			dropped++
			d.logger.Warn("dropping record that failed normalization",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, e)
	}
	metrics.ObserveDroppedRows("invalid", dropped)
	metrics.ObserveLoad(source, "success", time.Since(start))
	metrics.SetDirectorySize(len(records))
	span.SetAttributes(
		attribute.Int("load.records", len(records)),
		attribute.Int("load.dropped", dropped),
	)

	d.commit(Event{Kind: EventLoaded, Records: records})
	d.logger.Debug("directory loaded",
		slog.String("source", source),
		slog.Int("records", len(records)),
	)
	return nil
}

// Add normalizes raw, persists it and prepends it to the collection. The
// collection is unchanged when any step fails.
func (d *Directory) Add(ctx context.Context, raw domain.RawRecord) (domain.Employee, error) {
	ev, _, err := d.mutate(func() (Event, error) { return d.addRecord(ctx, raw) })
	if err != nil {
		return domain.Employee{}, err
	}
	return ev.Record, nil
}

// mutate runs a store write and commits its event while holding writeMu
func (d *Directory) mutate(write func() (Event, error)) (Event, State, error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	ev, err := write()
	if err != nil {
		return Event{}, d.Snapshot(), err
	}
	return ev, d.commit(ev), nil
}

func (d *Directory) addRecord(ctx context.Context, raw domain.RawRecord) (Event, error) {
	e, err := domain.Normalize(raw, d.clock())
	if err != nil {
		metrics.ObserveAppend("invalid")
		return Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	stored, err := d.store.Append(ctx, e.Raw())
	if err != nil {
		metrics.ObserveAppend("error")
		return Event{}, err
	}
	// The store may assign fields of its own; read back what it accepted.
	if stored != nil {
		if accepted, err := domain.Normalize(stored, d.clock()); err == nil {
			e = accepted
		}
	}
	metrics.ObserveAppend("success")
	return Event{Kind: EventAdded, Record: e}, nil
}

// Update replaces the record with the given ID on stores that support editing
func (d *Directory) Update(ctx context.Context, id string, raw domain.RawRecord) (domain.Employee, error) {
	ev, _, err := d.mutate(func() (Event, error) { return d.updateRecord(ctx, id, raw) })
	if err != nil {
		return domain.Employee{}, err
	}
	return ev.Record, nil
}

func (d *Directory) updateRecord(ctx context.Context, id string, raw domain.RawRecord) (Event, error) {
	editor, ok := d.store.(domain.Editor)
	if !ok {
		return Event{}, &domain.UnsupportedOperationError{Op: "update"}
	}
	e, err := domain.Normalize(raw, d.clock())
	if err != nil {
		return Event{}, err
	}
	e.ID = id
	if err := editor.Replace(ctx, id, e.Raw()); err != nil {
		return Event{}, err
	}
	return Event{Kind: EventUpdated, Record: e}, nil
}

func (d *Directory) deleteRecord(ctx context.Context, id string) (Event, error) {
	editor, ok := d.store.(domain.Editor)
	if !ok {
		return Event{}, &domain.UnsupportedOperationError{Op: "delete"}
	}
	if err := editor.Remove(ctx, id); err != nil {
		return Event{}, err
	}
	return Event{Kind: EventDeleted, ID: id}, nil
}

// Dispatch applies an intent and returns the resulting state
func (d *Directory) Dispatch(ctx context.Context, in Intent) (State, error) {
	var ev Event
	switch in := in.(type) {
	case AddRecord:
		_, s, err := d.mutate(func() (Event, error) { return d.addRecord(ctx, in.Record) })
		return s, err
	case UpdateRecord:
		_, s, err := d.mutate(func() (Event, error) { return d.updateRecord(ctx, in.ID, in.Record) })
		return s, err
	case DeleteRecord:
		_, s, err := d.mutate(func() (Event, error) { return d.deleteRecord(ctx, in.ID) })
		return s, err
	case StartEdit:
		if _, found := d.Find(in.ID); !found {
			return d.Snapshot(), &domain.NotFoundError{ID: in.ID}
		}
		ev = Event{Kind: EventEditStarted, ID: in.ID}
	case UpdateQuery:
		ev = Event{Kind: EventQueryChanged, Query: in.Query}
	case ClearQuery:
		ev = Event{Kind: EventQueryCleared}
	default:
		return d.Snapshot(), fmt.Errorf("unknown intent %T", in)
	}
	return d.commit(ev), nil
}

// Find returns the record with the given ID
func (d *Directory) Find(id string) (domain.Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := indexOf(d.state.Records, id); i >= 0 {
		return d.state.Records[i], true
	}
	return domain.Employee{}, false
}

// commit reduces ev into the state and notifies subscribers
func (d *Directory) commit(ev Event) State {
	d.mu.Lock()
	next := Reduce(d.state, ev)
	changed := next.Version != d.state.Version
	d.state = next
	d.mu.Unlock()

	if changed {
		d.views.Invalidate("view:")
		d.notify()
	}
	return next
}

// View filters the collection with q
func (d *Directory) View(q domain.Query) View {
	s := d.Snapshot()
	v := View{
		Query:   q,
		Total:   len(s.Records),
		Editing: s.Editing,
		Err:     s.Err,
		Version: s.Version,
	}

	key := fmt.Sprintf("view:%d:%s", s.Version, q.Key())
	if cached, ok := d.views.Get(key); ok {
		metrics.ObserveViewCache(true)
		v.Records = slices.Clone(cached)
		return v
	}
	metrics.ObserveViewCache(false)

	start := time.Now()
	filtered := domain.Filter(s.Records, q)
	metrics.ObserveFilter(time.Since(start))
	d.views.Set(key, filtered)
	v.Records = slices.Clone(filtered)
	return v
}

// CurrentView filters the collection with the session query
func (d *Directory) CurrentView() View {
	return d.View(d.Snapshot().Query)
}

// Options returns the dropdown choices for the loaded collection
func (d *Directory) Options() domain.Options {
	return domain.FilterOptions(d.Snapshot().Records)
}

// Subscribe registers for change notifications. Notifications coalesce: a
// slow subscriber sees one pending signal, not one per change.
func (d *Directory) Subscribe() (<-chan struct{}, func()) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextSub
	d.nextSub++
	ch := make(chan struct{}, 1)
	d.subscribers[id] = ch
	return ch, func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subscribers, id)
	}
}

func (d *Directory) notify() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
