package services

import (
	"context"
	"testing"

	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newComparisonService(t *testing.T, store *MockEventStore, c Cache) *ComparisonService {
	t.Helper()
	return NewComparisonService(store, c, metrics.NewMetrics(), testTracer(t), testTTL())
}

func intPtr(v int) *int { return &v }

func compareEvent(ch models.Channel, title string, rate *int) models.Event {
	return models.Event{
		ID:           uuid.New(),
		ChannelID:    ch.ID,
		Title:        title,
		Status:       models.StatusActive,
		DiscountRate: rate,
		Channel:      ch,
	}
}

func TestCompareChannelsGroupsAndRecommends(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	chA := activeChannel("oliveyoung")
	chB := activeChannel("musinsa")
	rows := []models.Event{
		compareEvent(chA, "앰플 기획전", intPtr(15)),
		compareEvent(chA, "앰플 단독전", nil),
		compareEvent(chB, "앰플 특가", intPtr(30)),
	}
	store.On("CompareRows", mock.Anything, "앰플").Return(rows, nil)

	result, err := svc.CompareChannels(context.Background(), "앰플")

	require.NoError(t, err)
	require.Len(t, result.Comparison, 2)
	require.Equal(t, "oliveyoung", result.Comparison[0].ChannelCode)
	require.Equal(t, 15, result.Comparison[0].BestDiscount)
	require.Len(t, result.Comparison[0].Events, 2)
	require.Equal(t, 30, result.Comparison[1].BestDiscount)
	require.NotNil(t, result.RecommendedChannel)
	require.Equal(t, "musinsa", *result.RecommendedChannel)
	require.Equal(t, "최대 30% 할인", result.Reason)
}

func TestCompareChannelsTieBreakFirstInOrderWins(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	chA := activeChannel("first")
	chB := activeChannel("second")
	rows := []models.Event{
		compareEvent(chA, "쿠션 행사", intPtr(20)),
		compareEvent(chB, "쿠션 행사", intPtr(20)),
	}
	store.On("CompareRows", mock.Anything, "쿠션").Return(rows, nil)

	result, err := svc.CompareChannels(context.Background(), "쿠션")

	require.NoError(t, err)
	require.NotNil(t, result.RecommendedChannel)
	require.Equal(t, "first", *result.RecommendedChannel)
}

func TestCompareChannelsNoMatchesIsNormal(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	store.On("CompareRows", mock.Anything, "선크림").Return([]models.Event{}, nil)

	result, err := svc.CompareChannels(context.Background(), "선크림")

	require.NoError(t, err)
	require.Empty(t, result.Comparison)
	require.Nil(t, result.RecommendedChannel)
	require.NotEmpty(t, result.Message)
}

func TestCompareChannelsEmptyKeywordNeverHitsStore(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	// A forwarded empty keyword would render ILIKE '%%' and match every
	// active event; the service must answer empty without querying
	for _, keyword := range []string{"", "   "} {
		result, err := svc.CompareChannels(context.Background(), keyword)

		require.NoError(t, err)
		require.Empty(t, result.Comparison)
		require.Nil(t, result.RecommendedChannel)
		require.NotEmpty(t, result.Message)
	}
	store.AssertNotCalled(t, "CompareRows", mock.Anything, mock.Anything)
}

func TestCompareChannelsAllNullDiscounts(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	ch := activeChannel("ably")
	rows := []models.Event{compareEvent(ch, "마스크팩 증정", nil)}
	store.On("CompareRows", mock.Anything, "마스크팩").Return(rows, nil)

	result, err := svc.CompareChannels(context.Background(), "마스크팩")

	require.NoError(t, err)
	require.Len(t, result.Comparison, 1)
	require.Equal(t, 0, result.Comparison[0].BestDiscount)
	require.NotNil(t, result.RecommendedChannel)
	require.Equal(t, "관련 행사가 진행 중입니다", result.Reason)
}

func TestCompareChannelsSecondCallHitsCache(t *testing.T) {
	store := new(MockEventStore)
	svc := newComparisonService(t, store, newMemoryCache())

	ch := activeChannel("zigzag")
	rows := []models.Event{compareEvent(ch, "립밤 특가", intPtr(10))}
	store.On("CompareRows", mock.Anything, "립밤").Return(rows, nil).Once()

	first, err := svc.CompareChannels(context.Background(), "립밤")
	require.NoError(t, err)

	second, err := svc.CompareChannels(context.Background(), "립밤")
	require.NoError(t, err)
	require.Equal(t, first.Reason, second.Reason)
	require.Equal(t, first.Comparison, second.Comparison)

	store.AssertExpectations(t)
}
