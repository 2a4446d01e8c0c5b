package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage"
)

// TotalsSource returns the passenger counts of a quote.
type TotalsSource interface {
	PassengerTotals(ctx context.Context, quoteID string) (models.PassengerTotals, error)
}

// Registry keeps one session per quote, creating it on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	totals TotalsSource
	deps   SessionDeps
	cfg    SessionConfig
	logger *slog.Logger
}

func NewRegistry(totals TotalsSource, deps SessionDeps, cfg SessionConfig) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		totals:   totals,
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
	}
}

// Get returns the session for quoteID. A quote the backend does not know
// yields ErrUnknownSession. Push ingestion is started for new sessions when a
// subscriber is configured; failing to subscribe is logged and the session is
// still usable. The store and the subscription are reached without holding
// the registry lock, so one slow quote does not stall the others.
func (r *Registry) Get(ctx context.Context, quoteID string) (*Session, error) {
	if s, ok := r.Lookup(quoteID); ok {
		return s, nil
	}

	totals, err := r.totals.PassengerTotals(ctx, quoteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownSession, quoteID)
		}
		return nil, &models.TransportError{Op: "load quote " + quoteID, Err: err}
	}

	s := NewSession(quoteID, totals, r.deps, r.cfg)
	if r.deps.Subscriber != nil {
		// the subscription outlives this request
		if err := s.StartPush(context.Background()); err != nil {
			r.logger.Warn("push ingestion unavailable", "quote_id", quoteID, "error", err)
		}
	}

	r.mu.Lock()
	if existing, ok := r.sessions[quoteID]; ok {
		r.mu.Unlock()
		// another request opened the quote first
		s.Close()
		return existing, nil
	}
	r.sessions[quoteID] = s
	r.mu.Unlock()

	r.deps.Metrics.SessionOpened()
	r.logger.Info("session opened", "quote_id", quoteID, "totals", totals)
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(quoteID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[quoteID]
	return s, ok
}

// Drop closes and forgets the session for quoteID.
func (r *Registry) Drop(quoteID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[quoteID]
	delete(r.sessions, quoteID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	r.deps.Metrics.SessionClosed()
	r.logger.Info("session closed", "quote_id", quoteID)
	return true
}

// QuoteIDs lists the open sessions.
func (r *Registry) QuoteIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Close closes every session.
func (r *Registry) Close() {
	for _, id := range r.QuoteIDs() {
		r.Drop(id)
	}
}
