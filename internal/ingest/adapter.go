// Package ingest feeds push-channel events into a search session.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/normalize"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
)

type State int32

const (
	StateIdle State = iota
	StateSubscribed
	StateFiltering
	StateMerging
)

func (s State) String() string {
	switch s {
	case StateSubscribed:
		return "subscribed"
	case StateFiltering:
		return "filtering"
	case StateMerging:
		return "merging"
	default:
		return "idle"
	}
}

// Batch is what one event contributes to a session.
type Batch struct {
	Rows []models.AvailabilityRow
	// Overrides by supplier code; later entries already replaced earlier ones.
	Overrides map[string]models.GroupOverride
}

// Sink applies batches. Implementations must apply them in call order.
type Sink interface {
	ApplyBatch(ctx context.Context, b Batch) (added int, err error)
}

// Outcome reports what happened to one event.
type Outcome struct {
	Entries  int `json:"entries"`
	Matched  int `json:"matched"`
	Filtered int `json:"filtered"`
	Rows     int `json:"rows"`
	Added    int `json:"added"`
	Skipped  int `json:"skipped"`
}

// Adapter filters events to one quote, normalizes their results and hands
// them to the sink one event at a time.
type Adapter struct {
	quoteID string
	channel string
	sub     Subscriber
	norm    *normalize.Normalizer
	sink    Sink
	logger  *slog.Logger
	metrics *obs.Metrics

	// serialises Handle between the subscription loop and direct callers
	mu         sync.Mutex
	state      atomic.Int32
	subscribed atomic.Bool
	done       chan struct{}
}

func NewAdapter(quoteID, channel string, sub Subscriber, norm *normalize.Normalizer, sink Sink, logger *slog.Logger, m *obs.Metrics) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		quoteID: quoteID,
		channel: channel,
		sub:     sub,
		norm:    norm,
		sink:    sink,
		logger:  logger.With("quote_id", quoteID, "component", "ingest"),
		metrics: m,
	}
}

func (a *Adapter) State() State { return State(a.state.Load()) }

func (a *Adapter) setState(s State) { a.state.Store(int32(s)) }

func (a *Adapter) rest() {
	if a.subscribed.Load() {
		a.setState(StateSubscribed)
		return
	}
	a.setState(StateIdle)
}

// Start subscribes and drains the subscription in the background until ctx
// ends or the subscription closes. It returns once the subscription is live.
func (a *Adapter) Start(ctx context.Context) error {
	if a.sub == nil {
		return errors.New("no push subscriber configured")
	}
	s, err := a.sub.Subscribe(ctx, a.channel)
	if err != nil {
		return &models.TransportError{Op: "subscribe " + a.channel, Err: err}
	}
	a.subscribed.Store(true)
	a.setState(StateSubscribed)
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		defer func() {
			s.Close()
			a.subscribed.Store(false)
			a.setState(StateIdle)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-s.Events():
				if !ok {
					a.logger.Info("push subscription closed")
					return
				}
				// errors are already logged and counted
				_, _ = a.Handle(ctx, raw)
			}
		}
	}()
	return nil
}

// Wait blocks until the loop started by Start has exited.
func (a *Adapter) Wait() {
	if a.done != nil {
		<-a.done
	}
}

// Handle processes one raw event. Events that cannot be decoded are
// discarded with a ParseError; entries for other quotes are dropped.
func (a *Adapter) Handle(ctx context.Context, raw []byte) (Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.rest()

	a.setState(StateFiltering)
	entries, err := Decode(raw)
	if err != nil {
		a.metrics.IncPushEvent("malformed")
		a.logger.Warn("discarding malformed push event", "error", err)
		return Outcome{}, err
	}

	out := Outcome{Entries: len(entries)}
	batch := Batch{Overrides: map[string]models.GroupOverride{}}
	for i, e := range entries {
		if e.QuoteID != a.quoteID {
			out.Filtered++
			continue
		}
		out.Matched++
		if o, ok := e.Override(); ok {
			batch.Overrides[e.Supplier()] = o
		}
		if len(e.Results) == 0 {
			continue
		}
		res, err := a.norm.Normalize(e.Results, normalize.DateContext{Start: e.StartDate, End: e.End()})
		if err != nil {
			out.Skipped++
			a.logger.Warn("skipping malformed push entry", "entry", i, "error", err)
			continue
		}
		for _, se := range res.Skipped {
			a.logger.Warn("skipping malformed option", "entry", i, "error", se)
		}
		out.Skipped += len(res.Skipped)
		batch.Rows = append(batch.Rows, res.Rows...)
	}
	a.metrics.AddParseErrors("push", out.Skipped)

	if out.Matched == 0 {
		a.metrics.IncPushEvent("filtered")
		a.logger.Debug("push event not for this quote", "entries", out.Entries)
		return out, nil
	}

	a.setState(StateMerging)
	out.Rows = len(batch.Rows)
	added, err := a.sink.ApplyBatch(ctx, batch)
	if err != nil {
		a.logger.Warn("failed to apply push batch", "error", err)
		return out, err
	}
	out.Added = added
	a.metrics.IncPushEvent("merged")
	a.metrics.AddRowsMerged("push", added)
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
