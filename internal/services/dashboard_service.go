package services

import (
	"context"
	"time"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/tracing"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// UrgentWindow is how far ahead an active event may end and still
	// count as urgent
	UrgentWindow = 48 * time.Hour

	trendDays    = 7
	urgentLimit  = 10
	popularLimit = 10
)

// DashboardService assembles the aggregate statistics payload
type DashboardService struct {
	events  EventStore
	cache   Cache
	metrics *metrics.Metrics
	tracer  tracing.Tracer
	ttl     config.CacheConfig
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	events EventStore,
	c Cache,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
	ttl config.CacheConfig,
) *DashboardService {
	return &DashboardService{
		events:  events,
		cache:   c,
		metrics: metricsCollector,
		tracer:  tracer,
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetDashboardData returns the combined dashboard payload. The five
// underlying queries are independent and run concurrently; the combined
// object is the cache unit, never the individual pieces.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*models.DashboardData, error) {
	txn := s.tracer.StartTransaction("get-dashboard-data")
	defer s.tracer.EndTransaction(txn)

	key := cache.DashboardCacheKey()

	var cached models.DashboardData
	if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
		return &cached, nil
	}

	stop := s.metrics.StartTimer("dashboard_aggregate")
	defer stop()

	data, err := s.aggregate(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "dashboard aggregation failed")
	}

	cacheSet(ctx, s.cache, key, data, s.ttl.DashboardTTL)

	return data, nil
}

// RefreshDashboard recomputes the payload and overwrites the cache
// entry. Used by the worker's warming job so API readers keep hitting
// a fresh entry.
func (s *DashboardService) RefreshDashboard(ctx context.Context) error {
	data, err := s.aggregate(ctx)
	if err != nil {
		return errors.Wrap(err, "dashboard refresh failed")
	}
	cacheSet(ctx, s.cache, cache.DashboardCacheKey(), data, s.ttl.DashboardTTL)
	return nil
}

func (s *DashboardService) aggregate(ctx context.Context) (*models.DashboardData, error) {
	now := s.now()
	data := &models.DashboardData{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		overview, err := s.events.Overview(gctx)
		if err != nil {
			return err
		}
		data.Overview = *overview
		return nil
	})

	g.Go(func() error {
		stats, err := s.events.ChannelStats(gctx)
		if err != nil {
			return err
		}
		data.ChannelStats = stats
		return nil
	})

	g.Go(func() error {
		trend, err := s.events.CreationTrend(gctx, now.AddDate(0, 0, -trendDays))
		if err != nil {
			return err
		}
		data.CreationTrend = trend
		return nil
	})

	g.Go(func() error {
		ending, err := s.events.EndingBetween(gctx, now, now.Add(UrgentWindow), urgentLimit)
		if err != nil {
			return err
		}
		data.UrgentEvents = annotateUrgent(ending, now)
		return nil
	})

	g.Go(func() error {
		popular, err := s.events.MostPopular(gctx, popularLimit)
		if err != nil {
			return err
		}
		data.PopularEvents = annotatePopular(popular)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func annotateUrgent(events []models.Event, now time.Time) []models.UrgentEvent {
	urgent := make([]models.UrgentEvent, 0, len(events))
	for _, e := range events {
		var hours float64
		if e.EndDate != nil {
			hours = e.EndDate.Sub(now).Hours()
		}
		urgent = append(urgent, models.UrgentEvent{Event: e, HoursRemaining: hours})
	}
	return urgent
}

func annotatePopular(events []models.Event) []models.PopularEvent {
	popular := make([]models.PopularEvent, 0, len(events))
	for _, e := range events {
		popular = append(popular, models.PopularEvent{Event: e, Score: e.PopularityScore()})
	}
	return popular
}
