package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"
	"example.com/promo/services/events/internal/tracing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testTracer(t *testing.T) tracing.Tracer {
	t.Helper()
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)
	return tracer
}

func testTTL() config.CacheConfig {
	return config.CacheConfig{
		SearchTTL:     300 * time.Second,
		EventTTL:      300 * time.Second,
		DashboardTTL:  300 * time.Second,
		ComparisonTTL: 600 * time.Second,
	}
}

func newEventService(t *testing.T, store *MockEventStore, viewLogs *MockViewLogStore, c Cache) *EventService {
	t.Helper()
	return NewEventService(store, viewLogs, c, metrics.NewMetrics(), testTracer(t), testTTL())
}

func activeChannel(code string) models.Channel {
	return models.Channel{
		ID:       uuid.New(),
		Name:     code,
		Code:     code,
		IsActive: true,
	}
}

func TestSearchEventsPaginationMath(t *testing.T) {
	store := new(MockEventStore)
	viewLogs := new(MockViewLogStore)
	svc := newEventService(t, store, viewLogs, newMemoryCache())

	ch := activeChannel("oliveyoung")
	rows := []models.Event{
		{ID: uuid.New(), ChannelID: ch.ID, Title: "First", Status: models.StatusActive, Channel: ch},
		{ID: uuid.New(), ChannelID: ch.ID, Title: "Second", Status: models.StatusActive, Channel: ch},
	}
	store.On("Count", mock.Anything, mock.AnythingOfType("*query.SearchFilter")).Return(int64(45), nil)
	store.On("Search", mock.Anything, mock.AnythingOfType("*query.SearchFilter")).Return(rows, nil)

	result, err := svc.SearchEvents(context.Background(), &query.SearchFilter{Page: 1})

	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.Equal(t, int64(45), result.Pagination.Total)
	require.Equal(t, 1, result.Pagination.Page)
	require.Equal(t, query.DefaultPageSize, result.Pagination.PageSize)
	require.Equal(t, 3, result.Pagination.TotalPages)
	store.AssertExpectations(t)
}

func TestSearchEventsEmptyMatchIsNotAnError(t *testing.T) {
	store := new(MockEventStore)
	svc := newEventService(t, store, new(MockViewLogStore), newMemoryCache())

	store.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)
	store.On("Search", mock.Anything, mock.Anything).Return([]models.Event{}, nil)

	ghost := "no-such-channel"
	result, err := svc.SearchEvents(context.Background(), &query.SearchFilter{Channel: &ghost})

	require.NoError(t, err)
	require.Empty(t, result.Rows)
	require.Equal(t, int64(0), result.Pagination.Total)
	require.Equal(t, 0, result.Pagination.TotalPages)
}

func TestSearchEventsSecondCallHitsCache(t *testing.T) {
	store := new(MockEventStore)
	svc := newEventService(t, store, new(MockViewLogStore), newMemoryCache())

	ch := activeChannel("musinsa")
	rows := []models.Event{{ID: uuid.New(), ChannelID: ch.ID, Title: "Cached", Status: models.StatusActive, Channel: ch}}
	store.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	store.On("Search", mock.Anything, mock.Anything).Return(rows, nil).Once()

	kw := "serum"
	first, err := svc.SearchEvents(context.Background(), &query.SearchFilter{Keyword: &kw})
	require.NoError(t, err)

	second, err := svc.SearchEvents(context.Background(), &query.SearchFilter{Keyword: &kw})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, firstJSON, secondJSON)

	// The store must have been consulted exactly once
	store.AssertExpectations(t)
}

func TestSearchEventsSurvivesUnavailableCache(t *testing.T) {
	store := new(MockEventStore)
	svc := newEventService(t, store, new(MockViewLogStore), failingCache{})

	ch := activeChannel("ably")
	rows := []models.Event{{ID: uuid.New(), ChannelID: ch.ID, Title: "Degraded", Status: models.StatusActive, Channel: ch}}
	store.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil).Times(2)
	store.On("Search", mock.Anything, mock.Anything).Return(rows, nil).Times(2)

	for i := 0; i < 2; i++ {
		result, err := svc.SearchEvents(context.Background(), &query.SearchFilter{})
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
	}
	store.AssertExpectations(t)
}

func TestGetEventByIDNotFound(t *testing.T) {
	store := new(MockEventStore)
	svc := newEventService(t, store, new(MockViewLogStore), newMemoryCache())

	id := uuid.New()
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	event, err := svc.GetEventByID(context.Background(), id, nil)

	require.NoError(t, err)
	require.Nil(t, event)
}

func TestGetEventByIDSideEffectFailureDoesNotSurface(t *testing.T) {
	store := new(MockEventStore)
	viewLogs := new(MockViewLogStore)
	svc := newEventService(t, store, viewLogs, newMemoryCache())

	ch := activeChannel("zigzag")
	event := &models.Event{ID: uuid.New(), ChannelID: ch.ID, Title: "Viewed", Status: models.StatusActive, Channel: ch}
	store.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	// Both side effects fail; the lookup must not notice
	store.On("IncrementViewCount", mock.Anything, event.ID).Return(errTest).Maybe()
	viewLogs.On("Create", mock.Anything, mock.Anything).Return(errTest).Maybe()

	viewer := "viewer-1"
	got, err := svc.GetEventByID(context.Background(), event.ID, &viewer)

	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, event.Title, got.Title)
}

func TestGenerateConsultationText(t *testing.T) {
	store := new(MockEventStore)
	viewLogs := new(MockViewLogStore)
	svc := newEventService(t, store, viewLogs, newMemoryCache())

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	ch := activeChannel("oliveyoung")
	event := &models.Event{
		ID:             uuid.New(),
		ChannelID:      ch.ID,
		Title:          "가을 세일",
		StartDate:      &start,
		EndDate:        &end,
		BenefitSummary: "전품목 30% 할인",
		EventURL:       "https://example.com/sale",
		Status:         models.StatusActive,
		Channel:        ch,
	}
	store.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	viewLogs.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	text, err := svc.GenerateConsultationText(context.Background(), event.ID)

	require.NoError(t, err)
	require.Equal(t, event.ID, text.EventID)
	require.Equal(t, event.Title, text.EventTitle)
	require.Contains(t, text.Text, "가을 세일")
	require.Contains(t, text.Text, "2026.09.01 ~ 2026.09.14")
	require.Contains(t, text.Text, "전품목 30% 할인")
	require.Contains(t, text.Text, "https://example.com/sale")
}

func TestGenerateConsultationTextNotFound(t *testing.T) {
	store := new(MockEventStore)
	svc := newEventService(t, store, new(MockViewLogStore), newMemoryCache())

	id := uuid.New()
	store.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.GenerateConsultationText(context.Background(), id)

	require.ErrorIs(t, err, models.ErrEventNotFound)
}
