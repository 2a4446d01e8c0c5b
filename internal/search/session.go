package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/commit"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/grouping"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/ingest"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/normalize"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/reconcile"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/rooms"
)

// SessionConfig holds the per-quote knobs a session is created with.
type SessionConfig struct {
	Limits           models.RoomLimits
	DestinationLimit int
	SupplierNames    map[string]string
}

// Session owns the working set of one quote. Every mutation runs on a single
// goroutine; provider calls and commits happen outside it and hand their
// results back as ops.
type Session struct {
	quoteID string
	svc     ServiceManagement
	norm    *normalize.Normalizer
	orch    *commit.Orchestrator
	cfg     SessionConfig
	logger  *slog.Logger
	metrics *obs.Metrics
	adapter *ingest.Adapter

	ops       chan func(*sessionState)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
}

type sessionState struct {
	totals       models.PassengerTotals
	filters      models.SearchFilters
	hasFilters   bool
	store        *reconcile.Store
	selection    *reconcile.SelectionSet
	overrides    map[string]models.GroupOverride
	placeholders map[string]grouping.Placeholder
	loading      map[string]bool
	rooms        []models.RoomConfig
	committing   bool
	lastError    string
	lastCommit   *commit.Outcome
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Service    ServiceManagement
	Normalizer *normalize.Normalizer
	Committer  *commit.Orchestrator
	Subscriber ingest.Subscriber
	Channel    string
	Logger     *slog.Logger
	Metrics    *obs.Metrics
}

// NewSession starts the session goroutine with one room holding every
// passenger of the quote.
func NewSession(quoteID string, totals models.PassengerTotals, deps SessionDeps, cfg SessionConfig) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DestinationLimit <= 0 {
		cfg.DestinationLimit = grouping.DefaultDestinationLimit
	}
	s := &Session{
		quoteID: quoteID,
		svc:     deps.Service,
		norm:    deps.Normalizer,
		orch:    deps.Committer,
		cfg:     cfg,
		logger:  logger.With("quote_id", quoteID),
		metrics: deps.Metrics,
		ops:     make(chan func(*sessionState)),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.adapter = ingest.NewAdapter(quoteID, deps.Channel, deps.Subscriber, deps.Normalizer, s, logger, deps.Metrics)

	st := &sessionState{
		totals:       totals,
		store:        reconcile.NewStore(),
		selection:    reconcile.NewSelectionSet(),
		overrides:    map[string]models.GroupOverride{},
		placeholders: map[string]grouping.Placeholder{},
		loading:      map[string]bool{},
		rooms:        rooms.AutoDistribute(totals, 1),
	}
	go s.run(st)
	return s
}

func (s *Session) QuoteID() string { return s.quoteID }

// StartPush subscribes the session to the push transport.
func (s *Session) StartPush(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	if err := s.adapter.Start(ctx); err != nil {
		cancel()
		return err
	}
	s.cancel = cancel
	return nil
}

// Close stops push ingestion and the session goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			s.adapter.Wait()
		}
		close(s.quit)
		<-s.done
	})
}

func (s *Session) run(st *sessionState) {
	defer close(s.done)
	for {
		select {
		case op := <-s.ops:
			op(st)
		case <-s.quit:
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it. Once fn has been
// accepted it always runs to completion, even if ctx ends meanwhile.
func (s *Session) do(ctx context.Context, fn func(*sessionState)) error {
	finished := make(chan struct{})
	op := func(st *sessionState) {
		defer close(finished)
		fn(st)
	}
	select {
	case s.ops <- op:
	case <-s.quit:
		return models.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// SearchResult reports what one search added to the working set.
type SearchResult struct {
	Stats   Stats `json:"stats"`
	Rows    int   `json:"rows"`
	Added   int   `json:"added"`
	Skipped int   `json:"skipped"`
	View    View  `json:"view"`
}

// RunSearch searches every supplier with the global filters and merges the
// answers into the working set.
func (s *Session) RunSearch(ctx context.Context, f models.SearchFilters) (SearchResult, error) {
	if err := f.Validate(); err != nil {
		return SearchResult{}, err
	}
	var req *models.SearchRequest
	var verr error
	err := s.do(ctx, func(st *sessionState) {
		st.filters = f
		st.hasFilters = true
		if f.Rooms > 0 && f.Rooms != len(st.rooms) {
			st.rooms = rooms.Rebalance(rooms.Resize(st.rooms, f.Rooms), st.totals)
		}
		if verr = rooms.ValidateExact(st.rooms, st.totals); verr != nil {
			st.lastError = verr.Error()
			return
		}
		req = models.NewSearchRequest(s.quoteID, f, st.rooms)
	})
	if err != nil {
		return SearchResult{}, err
	}
	if verr != nil {
		return SearchResult{}, verr
	}

	s.metrics.IncSearch("global")
	return s.execute(ctx, req, normalize.DateContext{Start: f.StartDate, End: f.EndDate()}, "")
}

// RunGroupSearch re-searches one supplier with its override layered over the
// global filters. The supplier shows as a loading placeholder until rows
// arrive. A nil override keeps whatever override the supplier already has.
func (s *Session) RunGroupSearch(ctx context.Context, supplierCode string, o *models.GroupOverride) (SearchResult, error) {
	if supplierCode == "" {
		return SearchResult{}, &models.MissingContextError{Fields: []string{"supplierCode"}}
	}
	var (
		req  *models.SearchRequest
		dc   normalize.DateContext
		gk   string
		verr error
	)
	err := s.do(ctx, func(st *sessionState) {
		if !st.hasFilters {
			verr = &models.MissingContextError{Fields: []string{"serviceType", "location", "startDate", "nights"}}
			return
		}
		if o != nil {
			st.overrides[supplierCode] = *o
		}
		eff := st.overrides[supplierCode].Apply(st.filters)
		eff.SupplierCode = supplierCode
		if verr = eff.Validate(); verr != nil {
			return
		}
		rs := effectiveRooms(st, supplierCode)
		if verr = rooms.ValidateExact(rs, st.totals); verr != nil {
			st.lastError = verr.Error()
			return
		}
		p := grouping.Placeholder{
			SupplierCode: supplierCode,
			SupplierName: s.cfg.SupplierNames[supplierCode],
			DateStart:    eff.StartDate,
			DateEnd:      eff.EndDate(),
		}
		gk = p.GroupKey()
		st.placeholders[gk] = p
		st.loading[gk] = true
		req = models.NewSearchRequest(s.quoteID, eff, rs)
		dc = normalize.DateContext{Start: p.DateStart, End: p.DateEnd}
	})
	if err != nil {
		return SearchResult{}, err
	}
	if verr != nil {
		return SearchResult{}, verr
	}

	s.metrics.IncSearch("group")
	return s.execute(ctx, req, dc, gk)
}

// effectiveRooms is the room set a supplier is searched and committed with:
// the session rooms, or an even split when its override asks for a
// different room count.
func effectiveRooms(st *sessionState, supplierCode string) []models.RoomConfig {
	if n := st.overrides[supplierCode].Rooms; n > 0 && n != len(st.rooms) {
		return rooms.AutoDistribute(st.totals, n)
	}
	return copyRooms(st.rooms)
}

// execute calls the providers and merges what they returned. loadingKey, if
// set, is cleared once the search settles either way.
func (s *Session) execute(ctx context.Context, req *models.SearchRequest, dc normalize.DateContext, loadingKey string) (SearchResult, error) {
	agg, serr := s.svc.Search(ctx, req)
	if serr != nil {
		s.logger.Warn("search failed", "supplier", req.SupplierCode, "error", serr)
		if !errors.Is(serr, models.ErrTransport) {
			serr = &models.TransportError{Op: "search", Err: serr}
		}
		_ = s.do(context.Background(), func(st *sessionState) {
			delete(st.loading, loadingKey)
			st.lastError = serr.Error()
		})
		return SearchResult{Stats: agg.Stats}, serr
	}

	res := SearchResult{Stats: agg.Stats}
	var rows []models.AvailabilityRow
	for _, p := range agg.Payloads {
		out, err := s.norm.Normalize(p.Raw, dc)
		if err != nil {
			res.Skipped++
			s.logger.Warn("skipping malformed provider payload", "provider", p.Provider, "error", err)
			continue
		}
		for _, se := range out.Skipped {
			s.logger.Warn("skipping malformed option", "provider", p.Provider, "error", se)
		}
		res.Skipped += len(out.Skipped)
		rows = append(rows, out.Rows...)
	}
	res.Rows = len(rows)
	s.metrics.AddParseErrors("search", res.Skipped)

	err := s.do(context.Background(), func(st *sessionState) {
		res.Added = st.store.Merge(rows)
		delete(st.loading, loadingKey)
		// stays may come back with dates other than the ones asked for, so
		// any row for the supplier retires its placeholder
		if loadingKey != "" && hasSupplier(rows, req.SupplierCode) {
			delete(st.placeholders, loadingKey)
		}
		st.lastError = ""
		res.View = s.view(st)
	})
	if err != nil {
		return res, err
	}
	s.metrics.AddRowsMerged("search", res.Added)
	s.logger.Info("search merged",
		"supplier", req.SupplierCode,
		"rows", res.Rows,
		"added", res.Added,
		"skipped", res.Skipped,
		"cache", res.Stats.Cache)
	return res, nil
}

func hasSupplier(rows []models.AvailabilityRow, code string) bool {
	for _, r := range rows {
		if r.SupplierCode == code {
			return true
		}
	}
	return false
}

// ApplyBatch merges one push event. It is the ingest adapter's sink.
func (s *Session) ApplyBatch(ctx context.Context, b ingest.Batch) (int, error) {
	var added int
	err := s.do(ctx, func(st *sessionState) {
		for code, o := range b.Overrides {
			st.overrides[code] = o
		}
		added = st.store.Merge(b.Rows)
	})
	return added, err
}

// IngestPushEvent handles one raw push event as if it had arrived on the
// subscription.
func (s *Session) IngestPushEvent(ctx context.Context, raw []byte) (ingest.Outcome, error) {
	return s.adapter.Handle(ctx, raw)
}

// IngestState reports the push adapter's state.
func (s *Session) IngestState() ingest.State { return s.adapter.State() }

// ToggleSelection flips a row's selection and returns the new state.
func (s *Session) ToggleSelection(ctx context.Context, selectionKey string) (bool, error) {
	var selected bool
	var terr error
	err := s.do(ctx, func(st *sessionState) {
		if _, ok := st.store.Lookup(selectionKey); !ok {
			terr = fmt.Errorf("%w: %s", models.ErrUnknownRow, selectionKey)
			return
		}
		selected = st.selection.Toggle(selectionKey)
	})
	if err != nil {
		return false, err
	}
	return selected, terr
}

func (s *Session) ClearSelection(ctx context.Context) error {
	return s.do(ctx, func(st *sessionState) {
		st.selection.ClearAll()
	})
}

// ClearResults empties the working set and everything derived from it.
// Filters and rooms are kept.
func (s *Session) ClearResults(ctx context.Context) error {
	return s.do(ctx, func(st *sessionState) {
		st.store.Reset()
		st.selection.ClearAll()
		st.overrides = map[string]models.GroupOverride{}
		st.placeholders = map[string]grouping.Placeholder{}
		st.loading = map[string]bool{}
		st.lastError = ""
		st.lastCommit = nil
	})
}

// SetRoomCount resizes the room list, refilling it when every room is empty.
func (s *Session) SetRoomCount(ctx context.Context, n int) ([]models.RoomConfig, error) {
	if n < 0 || n > rooms.MaxRooms {
		return nil, fmt.Errorf("%w: room count must be between 0 and %d", models.ErrInvalidFilters, rooms.MaxRooms)
	}
	var out []models.RoomConfig
	err := s.do(ctx, func(st *sessionState) {
		st.rooms = rooms.Rebalance(rooms.Resize(st.rooms, n), st.totals)
		out = copyRooms(st.rooms)
	})
	return out, err
}

// EditRoom applies one manual edit. On error the rooms are left unchanged
// and returned as they were.
func (s *Session) EditRoom(ctx context.Context, index int, field string, value any) ([]models.RoomConfig, error) {
	var out []models.RoomConfig
	var eerr error
	err := s.do(ctx, func(st *sessionState) {
		var next []models.RoomConfig
		next, eerr = rooms.ApplyManualEdit(st.rooms, index, field, value, st.totals, s.cfg.Limits)
		if eerr == nil {
			st.rooms = next
		}
		out = copyRooms(st.rooms)
	})
	if err != nil {
		return nil, err
	}
	return out, eerr
}

// CommitSelected commits every selected bookable row. Rows that commit are
// deselected as they succeed; failed rows stay selected for a retry.
func (s *Session) CommitSelected(ctx context.Context) (commit.Outcome, error) {
	var in commit.Input
	var cerr error
	err := s.do(ctx, func(st *sessionState) {
		if st.committing {
			cerr = models.ErrCommitInProgress
			return
		}
		in = commit.Input{
			QuoteID:       s.quoteID,
			Rows:          st.selection.Selected(st.store.Rows()),
			Rooms:         copyRooms(st.rooms),
			Totals:        st.totals,
			Filters:       map[string]models.SearchFilters{},
			SupplierRooms: map[string][]models.RoomConfig{},
		}
		for _, r := range in.Rows {
			eff := st.overrides[r.SupplierCode].Apply(st.filters)
			eff.SupplierCode = r.SupplierCode
			in.Filters[r.SupplierCode] = eff
			in.SupplierRooms[r.SupplierCode] = effectiveRooms(st, r.SupplierCode)
		}
		st.committing = true
	})
	if err != nil {
		return commit.Outcome{}, err
	}
	if cerr != nil {
		return commit.Outcome{}, cerr
	}

	out, cerr := s.orch.Commit(ctx, in, func(key string) {
		_ = s.do(context.Background(), func(st *sessionState) {
			st.selection.Set(key, false)
		})
	})

	_ = s.do(context.Background(), func(st *sessionState) {
		st.committing = false
		if cerr != nil {
			st.lastError = cerr.Error()
			return
		}
		st.lastCommit = &out
		st.lastError = ""
		if out.Failed > 0 {
			st.lastError = out.Summary()
		}
	})
	return out, cerr
}

// SelectionSummary describes the current selection.
type SelectionSummary struct {
	Count int      `json:"count"`
	Any   bool     `json:"any"`
	Keys  []string `json:"keys"`
}

// View is the render-ready state of a session.
type View struct {
	QuoteID     string                 `json:"quoteId"`
	Filters     *models.SearchFilters  `json:"filters,omitempty"`
	Sections    []models.DateSection   `json:"sections"`
	Selection   SelectionSummary       `json:"selection"`
	Rooms       []models.RoomConfig    `json:"rooms"`
	Totals      models.PassengerTotals `json:"totals"`
	RoomError   string                 `json:"roomError,omitempty"`
	LastError   string                 `json:"lastError,omitempty"`
	LastCommit  *commit.Outcome        `json:"lastCommit,omitempty"`
	IngestState string                 `json:"ingestState"`
}

// View rebuilds the grouped view from the working set.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.do(ctx, func(st *sessionState) {
		v = s.view(st)
	})
	return v, err
}

func (s *Session) view(st *sessionState) View {
	rows := st.selection.Apply(st.store.Rows())
	groups := grouping.GroupBySupplierAndDate(rows, grouping.Options{
		Global:       st.filters,
		Overrides:    st.overrides,
		Names:        s.cfg.SupplierNames,
		Placeholders: placeholderList(st.placeholders),
		Loading:      st.loading,
	})
	v := View{
		QuoteID:  s.quoteID,
		Sections: grouping.BuildSections(groups, s.cfg.DestinationLimit),
		Selection: SelectionSummary{
			Count: st.selection.Count(),
			Any:   st.selection.Any(),
			Keys:  st.selection.Keys(),
		},
		Rooms:       copyRooms(st.rooms),
		Totals:      st.totals,
		LastError:   st.lastError,
		LastCommit:  st.lastCommit,
		IngestState: s.adapter.State().String(),
	}
	if st.hasFilters {
		f := st.filters
		v.Filters = &f
	}
	if err := rooms.ValidateExact(st.rooms, st.totals); err != nil {
		v.RoomError = err.Error()
	}
	return v
}

// Snapshot is the serialisable state of a session.
type Snapshot struct {
	QuoteID      string                          `json:"quoteId"`
	Filters      *models.SearchFilters           `json:"filters,omitempty"`
	Rows         []models.AvailabilityRow        `json:"rows"`
	Selected     []string                        `json:"selected"`
	Overrides    map[string]models.GroupOverride `json:"overrides,omitempty"`
	Placeholders []grouping.Placeholder          `json:"placeholders,omitempty"`
	Rooms        []models.RoomConfig             `json:"rooms"`
	Totals       models.PassengerTotals          `json:"totals"`
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func(st *sessionState) {
		snap = Snapshot{
			QuoteID:      s.quoteID,
			Rows:         st.store.Rows(),
			Selected:     st.selection.Keys(),
			Overrides:    make(map[string]models.GroupOverride, len(st.overrides)),
			Placeholders: placeholderList(st.placeholders),
			Rooms:        copyRooms(st.rooms),
			Totals:       st.totals,
		}
		if st.hasFilters {
			f := st.filters
			snap.Filters = &f
		}
		for k, o := range st.overrides {
			snap.Overrides[k] = o
		}
	})
	return snap, err
}

// Restore replaces the session state with a snapshot. Selected keys with no
// matching row are dropped. Passenger totals stay those of the quote.
func (s *Session) Restore(ctx context.Context, snap Snapshot) error {
	return s.do(ctx, func(st *sessionState) {
		st.store.Restore(snap.Rows)
		st.selection.ClearAll()
		for _, k := range snap.Selected {
			if _, ok := st.store.Lookup(k); ok {
				st.selection.Set(k, true)
			}
		}
		st.hasFilters = snap.Filters != nil
		st.filters = models.SearchFilters{}
		if snap.Filters != nil {
			st.filters = *snap.Filters
		}
		st.overrides = map[string]models.GroupOverride{}
		for k, o := range snap.Overrides {
			st.overrides[k] = o
		}
		st.placeholders = map[string]grouping.Placeholder{}
		for _, p := range snap.Placeholders {
			st.placeholders[p.GroupKey()] = p
		}
		st.loading = map[string]bool{}
		if len(snap.Rooms) > 0 {
			st.rooms = rooms.Resize(snap.Rooms, len(snap.Rooms))
		}
		st.lastError = ""
		st.lastCommit = nil
	})
}

func placeholderList(m map[string]grouping.Placeholder) []grouping.Placeholder {
	out := make([]grouping.Placeholder, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupKey() < out[j].GroupKey() })
	return out
}

func copyRooms(rs []models.RoomConfig) []models.RoomConfig {
	out := make([]models.RoomConfig, len(rs))
	copy(out, rs)
	return out
}
