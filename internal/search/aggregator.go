package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/providers"
)

type AggregatorService interface {
	Search(ctx context.Context, req *models.SearchRequest) (AggregatedResult, error)
}

// Aggregator queries providers in parallel and collects their payloads.
type Aggregator struct {
	providers []providers.Provider
	timeout   time.Duration
	metrics   *obs.Metrics
	logger    *slog.Logger
}

func NewAggregator(ps []providers.Provider, timeout time.Duration, m *obs.Metrics, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{providers: ps, timeout: timeout, metrics: m, logger: logger}
}

type providerAnswer struct {
	index int
	name  string
	raw   []byte
	err   error
}

// Search fails with a TransportError only when no provider answered.
func (a *Aggregator) Search(ctx context.Context, req *models.SearchRequest) (AggregatedResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	answers := make(chan providerAnswer, len(a.providers))
	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, pr providers.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("provider panic recovered", "provider", pr.Name(), "panic", r)
					a.metrics.IncProviderFailure(pr.Name())
					answers <- providerAnswer{index: i, name: pr.Name(), err: fmt.Errorf("provider %s panicked", pr.Name())}
				}
			}()
			t := time.Now()
			raw, err := pr.Search(ctx, req)
			a.metrics.ObserveProviderLatency(pr.Name(), time.Since(t).Seconds())
			if err != nil {
				a.metrics.IncProviderFailure(pr.Name())
			}
			answers <- providerAnswer{index: i, name: pr.Name(), raw: raw, err: err}
		}(i, p)
	}
	go func() {
		wg.Wait()
		close(answers)
	}()

	byIndex := make([]*providerAnswer, len(a.providers))
	var errs []error
	for ans := range answers {
		ans := ans
		if ans.err != nil {
			a.logger.Warn("provider search failed", "provider", ans.name, "error", ans.err)
			errs = append(errs, fmt.Errorf("%s: %w", ans.name, ans.err))
			continue
		}
		byIndex[ans.index] = &ans
	}

	out := AggregatedResult{}
	for _, ans := range byIndex {
		if ans != nil {
			out.Payloads = append(out.Payloads, ProviderPayload{Provider: ans.name, Raw: ans.raw})
		}
	}
	out.Stats.ProvidersTotal = len(a.providers)
	out.Stats.ProvidersSucceeded = len(out.Payloads)
	out.Stats.ProvidersFailed = len(errs)
	out.Stats.Cache = "miss"
	out.Stats.DurationMs = time.Since(start).Milliseconds()

	if len(out.Payloads) == 0 {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no providers configured"))
		}
		return out, &models.TransportError{Op: "provider search", Err: errors.Join(errs...)}
	}
	return out, nil
}
