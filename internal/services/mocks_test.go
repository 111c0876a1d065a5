package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var errTest = errors.New("boom")

// MockEventStore is a testify mock of the event repository
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Count(ctx context.Context, f *query.SearchFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventStore) Search(ctx context.Context, f *query.SearchFilter) ([]models.Event, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventStore) CompareRows(ctx context.Context, keyword string) ([]models.Event, error) {
	args := m.Called(ctx, keyword)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) Overview(ctx context.Context) (*models.DashboardOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardOverview), args.Error(1)
}

func (m *MockEventStore) ChannelStats(ctx context.Context) ([]models.ChannelStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ChannelStats), args.Error(1)
}

func (m *MockEventStore) CreationTrend(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]models.DailyCount), args.Error(1)
}

func (m *MockEventStore) EndingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Event, error) {
	args := m.Called(ctx, from, to, limit)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventStore) MostPopular(ctx context.Context, limit int) ([]models.Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Event), args.Error(1)
}

// MockViewLogStore is a testify mock of the view log repository
type MockViewLogStore struct {
	mock.Mock
}

func (m *MockViewLogStore) Create(ctx context.Context, viewLog *models.EventViewLog) error {
	args := m.Called(ctx, viewLog)
	return args.Error(0)
}

// memoryCache is an in-process Cache for hit-path tests. It stores the
// JSON form so hits round-trip through serialization like Redis does.
type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, value interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, value)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
			removed++
		}
	}
	return removed, nil
}

// failingCache simulates a cache whose backing store is unreachable
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, value interface{}) error {
	return errors.New("connection refused")
}

func (failingCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (failingCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, errors.New("connection refused")
}
