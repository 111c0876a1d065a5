// Package services holds the business logic of the lookup service:
// cached event search, single-event lookup with fire-and-forget view
// accounting, dashboard aggregation and channel comparison.
package services

import (
	"context"
	"time"

	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"

	"github.com/google/uuid"
)

// EventStore is the narrow slice of the event repository the services
// depend on
type EventStore interface {
	Count(ctx context.Context, f *query.SearchFilter) (int64, error)
	Search(ctx context.Context, f *query.SearchFilter) ([]models.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	CompareRows(ctx context.Context, keyword string) ([]models.Event, error)
	Overview(ctx context.Context) (*models.DashboardOverview, error)
	ChannelStats(ctx context.Context) ([]models.ChannelStats, error)
	CreationTrend(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	EndingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Event, error)
	MostPopular(ctx context.Context, limit int) ([]models.Event, error)
}

// ViewLogStore records event views
type ViewLogStore interface {
	Create(ctx context.Context, viewLog *models.EventViewLog) error
}

// Cache is the gateway to the key/value store. Implementations may be
// unavailable at any time; callers treat every error as a miss.
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}
