package services

import (
	"context"
	"testing"
	"time"

	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventIndexer is a testify mock of the secondary index
type MockEventIndexer struct {
	mock.Mock
}

func (m *MockEventIndexer) IndexEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventIndexer) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestHandleMutationDropsDerivedEntries(t *testing.T) {
	store := new(MockEventStore)
	indexer := new(MockEventIndexer)
	c := newMemoryCache()
	svc := NewInvalidationService(store, c, indexer)

	ch := activeChannel("oliveyoung")
	event := &models.Event{ID: uuid.New(), ChannelID: ch.ID, Title: "Mutated", Status: models.StatusActive, Channel: ch}

	ctx := context.Background()
	ttl := time.Minute
	require.NoError(t, c.Set(ctx, cache.EventCacheKey(event.ID), event, ttl))
	require.NoError(t, c.Set(ctx, cache.SearchCacheKey("status=ACTIVE"), "payload", ttl))
	require.NoError(t, c.Set(ctx, cache.SearchCacheKey("keyword=serum"), "payload", ttl))
	require.NoError(t, c.Set(ctx, cache.CompareCacheKey("serum"), "payload", ttl))
	require.NoError(t, c.Set(ctx, cache.DashboardCacheKey(), "payload", ttl))

	store.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	indexer.On("IndexEvent", mock.Anything, event).Return(nil)

	err := svc.HandleMutation(ctx, &models.EventMutation{
		EventID:     event.ID,
		ChannelCode: ch.Code,
		Action:      "updated",
	})

	require.NoError(t, err)
	require.Empty(t, c.data)
	indexer.AssertExpectations(t)
}

func TestHandleMutationDeleteRemovesIndexDocument(t *testing.T) {
	store := new(MockEventStore)
	indexer := new(MockEventIndexer)
	svc := NewInvalidationService(store, newMemoryCache(), indexer)

	id := uuid.New()
	indexer.On("DeleteEvent", mock.Anything, id).Return(nil)

	err := svc.HandleMutation(context.Background(), &models.EventMutation{
		EventID: id,
		Action:  "deleted",
	})

	require.NoError(t, err)
	indexer.AssertExpectations(t)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestHandleMutationSurvivesUnavailableCache(t *testing.T) {
	store := new(MockEventStore)
	svc := NewInvalidationService(store, failingCache{}, nil)

	id := uuid.New()
	err := svc.HandleMutation(context.Background(), &models.EventMutation{
		EventID: id,
		Action:  "updated",
	})

	require.NoError(t, err)
}
