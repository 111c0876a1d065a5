package services

import (
	"context"
	"fmt"
	"strings"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/tracing"

	"github.com/pkg/errors"
)

// ComparisonService ranks active channels for a keyword by their best
// discount
type ComparisonService struct {
	events  EventStore
	cache   Cache
	metrics *metrics.Metrics
	tracer  tracing.Tracer
	ttl     config.CacheConfig
}

// NewComparisonService creates a new comparison service
func NewComparisonService(
	events EventStore,
	c Cache,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
	ttl config.CacheConfig,
) *ComparisonService {
	return &ComparisonService{
		events:  events,
		cache:   c,
		metrics: metricsCollector,
		tracer:  tracer,
		ttl:     ttl,
	}
}

// CompareChannels groups active events matching the keyword by channel
// and recommends the channel with the best discount. A keyword matching
// nothing is a normal outcome with an empty comparison list. An empty
// keyword never reaches the store: its wildcard pattern would match
// every active event instead of none.
func (s *ComparisonService) CompareChannels(ctx context.Context, keyword string) (*models.ComparisonResult, error) {
	txn := s.tracer.StartTransaction("compare-channels")
	defer s.tracer.EndTransaction(txn)

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return buildComparison(keyword, nil), nil
	}

	key := cache.CompareCacheKey(keyword)

	var cached models.ComparisonResult
	if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
		return &cached, nil
	}

	stop := s.metrics.StartTimer("compare_channels")
	defer stop()

	rows, err := s.events.CompareRows(ctx, keyword)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "channel comparison failed")
	}

	result := buildComparison(keyword, rows)
	cacheSet(ctx, s.cache, key, result, s.ttl.ComparisonTTL)

	return result, nil
}

// buildComparison groups rows by channel in first-seen order and picks
// the recommendation
func buildComparison(keyword string, rows []models.Event) *models.ComparisonResult {
	result := &models.ComparisonResult{
		Keyword:    keyword,
		Comparison: []models.ChannelComparisonGroup{},
	}

	if len(rows) == 0 {
		result.Message = "검색 결과가 없습니다"
		return result
	}

	index := make(map[string]int)
	for _, e := range rows {
		id := e.ChannelID.String()
		pos, ok := index[id]
		if !ok {
			pos = len(result.Comparison)
			index[id] = pos
			result.Comparison = append(result.Comparison, models.ChannelComparisonGroup{
				ChannelID:   e.ChannelID,
				ChannelName: e.Channel.Name,
				ChannelCode: e.Channel.Code,
			})
		}
		group := &result.Comparison[pos]
		group.Events = append(group.Events, models.ComparisonEvent{
			ID:           e.ID,
			Title:        e.Title,
			DiscountRate: e.DiscountRate,
			EventURL:     e.EventURL,
		})
		if e.DiscountRate != nil && *e.DiscountRate > group.BestDiscount {
			group.BestDiscount = *e.DiscountRate
		}
	}

	winner := pickRecommendation(result.Comparison)
	result.RecommendedChannel = &winner.ChannelCode
	if winner.BestDiscount > 0 {
		result.Reason = fmt.Sprintf("최대 %d%% 할인", winner.BestDiscount)
	} else {
		result.Reason = "관련 행사가 진행 중입니다"
	}

	return result
}

// pickRecommendation scans groups in insertion order with a strict
// greater-than comparison, so on a tied best discount the group that
// appeared first in query-result order wins.
func pickRecommendation(groups []models.ChannelComparisonGroup) *models.ChannelComparisonGroup {
	best := &groups[0]
	for i := 1; i < len(groups); i++ {
		if groups[i].BestDiscount > best.BestDiscount {
			best = &groups[i]
		}
	}
	return best
}
