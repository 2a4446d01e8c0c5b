package search

import (
	"context"
	"fmt"
	"time"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
)

// ServiceManagement is what a session needs from the provider side.
type ServiceManagement interface {
	Search(ctx context.Context, req *models.SearchRequest) (AggregatedResult, error)
}

type service struct {
	agg            AggregatorService
	cache          CacheService
	metrics        *obs.Metrics
	computeTimeout time.Duration
}

// NewService puts the cache in front of the aggregator. Every call is bounded
// by t, including time spent waiting on an identical search already in flight.
func NewService(ag AggregatorService, ch CacheService, m *obs.Metrics, t time.Duration) *service {
	return &service{
		agg:            ag,
		cache:          ch,
		metrics:        m,
		computeTimeout: t,
	}
}

func (s *service) Search(ctx context.Context, req *models.SearchRequest) (AggregatedResult, error) {
	if req == nil {
		return AggregatedResult{}, fmt.Errorf("%w: empty search request", models.ErrInvalidFilters)
	}
	cctx, cancel := context.WithTimeout(ctx, s.computeTimeout)
	defer cancel()

	res, err := s.cache.GetOrCompute(cctx, req.CacheKey(), func(ctx context.Context) (AggregatedResult, error) {
		return s.agg.Search(ctx, req)
	})
	if err != nil {
		return res, fmt.Errorf("search %s from %s: %w", req.Location, req.StartDate, err)
	}
	return res, nil
}
