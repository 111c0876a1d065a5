package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"
	"example.com/promo/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// sideEffectTimeout bounds the fire-and-forget writes so an abandoned
// request cannot leak a goroutine forever
const sideEffectTimeout = 5 * time.Second

// EventService serves event searches and single-event lookups through
// a read-through cache
type EventService struct {
	events   EventStore
	viewLogs ViewLogStore
	cache    Cache
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
	ttl      config.CacheConfig
}

// NewEventService creates a new event service
func NewEventService(
	events EventStore,
	viewLogs ViewLogStore,
	c Cache,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
	ttl config.CacheConfig,
) *EventService {
	return &EventService{
		events:   events,
		viewLogs: viewLogs,
		cache:    c,
		metrics:  metricsCollector,
		tracer:   tracer,
		ttl:      ttl,
	}
}

// SearchEvents returns one page of events matching the filter, reading
// through the cache. A filter matching nothing yields an empty page,
// not an error.
func (s *EventService) SearchEvents(ctx context.Context, filter *query.SearchFilter) (*models.SearchResult, error) {
	txn := s.tracer.StartTransaction("search-events")
	defer s.tracer.EndTransaction(txn)

	filter.Normalize()
	key := cache.SearchCacheKey(filter.CacheKey())

	var cached models.SearchResult
	if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
		return &cached, nil
	}

	stop := s.metrics.StartTimer("search_events")
	defer stop()

	span := s.tracer.StartSpan("count-events", txn)
	total, err := s.events.Count(ctx, filter)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "event search failed")
	}

	span = s.tracer.StartSpan("select-events", txn)
	rows, err := s.events.Search(ctx, filter)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "event search failed")
	}
	if rows == nil {
		rows = []models.Event{}
	}

	result := &models.SearchResult{
		Rows:       rows,
		Pagination: models.NewPagination(total, filter.Page, filter.PageSize),
	}
	cacheSet(ctx, s.cache, key, result, s.ttl.SearchTTL)

	return result, nil
}

// GetEventByID returns a single event or (nil, nil) when the id does
// not resolve. On success the view counter and, when the viewer is
// known, a view log are written off the request path.
func (s *EventService) GetEventByID(ctx context.Context, id uuid.UUID, viewerID *string) (*models.Event, error) {
	txn := s.tracer.StartTransaction("get-event-by-id")
	defer s.tracer.EndTransaction(txn)

	key := cache.EventCacheKey(id)

	var event *models.Event
	var cached models.Event
	if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
		event = &cached
	} else {
		loaded, err := s.events.FindByID(ctx, id)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, errors.Wrap(err, "event lookup failed")
		}
		if loaded == nil {
			return nil, nil
		}
		event = loaded
		cacheSet(ctx, s.cache, key, event, s.ttl.EventTTL)
	}

	s.recordView(event.ID, viewerID, models.ViewTypeDetail, true)

	return event, nil
}

// GenerateConsultationText renders the canned consultation reply for an
// event. Fails with models.ErrEventNotFound when the id does not resolve.
func (s *EventService) GenerateConsultationText(ctx context.Context, id uuid.UUID) (*models.ConsultationText, error) {
	event, err := s.GetEventByID(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}

	s.recordView(event.ID, nil, models.ViewTypeConsultation, false)

	return &models.ConsultationText{
		EventID:    event.ID,
		EventTitle: event.Title,
		Text:       renderConsultation(event),
	}, nil
}

// recordView issues the fire-and-forget side effects of a view. The
// caller never waits on them and their failures are logged and dropped.
func (s *EventService) recordView(eventID uuid.UUID, viewerID *string, viewType string, countView bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if countView {
			if err := s.events.IncrementViewCount(ctx, eventID); err != nil {
				log.Warn().Err(err).Str("event_id", eventID.String()).Msg("Failed to increment view count")
			}
		}

		if viewType == models.ViewTypeConsultation || viewerID != nil {
			viewLog := &models.EventViewLog{
				EventID:  eventID,
				ViewerID: viewerID,
				ViewType: viewType,
			}
			if err := s.viewLogs.Create(ctx, viewLog); err != nil {
				log.Warn().Err(err).Str("event_id", eventID.String()).Msg("Failed to insert view log")
			}
		}
	}()
}

// cacheGet treats every gateway error, transport failures included, the
// same as an absent key: the relational store is the source of truth.
func cacheGet(ctx context.Context, c Cache, m *metrics.Metrics, key string, out interface{}) bool {
	err := c.Get(ctx, key, out)
	if err == nil {
		m.IncrementCounter("cache_hit")
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
	}
	m.IncrementCounter("cache_miss")
	return false
}

func cacheSet(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func renderConsultation(event *models.Event) string {
	var sb strings.Builder
	sb.WriteString("안녕하세요! 문의하신 행사 안내드립니다 :)\n\n")
	fmt.Fprintf(&sb, "[%s] %s\n", event.Channel.Name, event.Title)
	fmt.Fprintf(&sb, "기간: %s\n", formatDateRange(event.StartDate, event.EndDate))
	if event.BenefitSummary != "" {
		fmt.Fprintf(&sb, "혜택: %s\n", event.BenefitSummary)
	}
	if event.BenefitDetail != "" {
		fmt.Fprintf(&sb, "조건: %s\n", event.BenefitDetail)
	}
	if event.EventURL != "" {
		fmt.Fprintf(&sb, "링크: %s\n", event.EventURL)
	}
	sb.WriteString("\n더 궁금하신 점 있으시면 편하게 말씀해주세요!")
	return sb.String()
}

func formatDateRange(start, end *time.Time) string {
	const layout = "2006.01.02"
	switch {
	case start != nil && end != nil:
		return start.Format(layout) + " ~ " + end.Format(layout)
	case start != nil:
		return start.Format(layout) + " ~"
	case end != nil:
		return "~ " + end.Format(layout)
	}
	return "상시 진행"
}
