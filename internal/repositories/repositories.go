package repositories

import (
	"context"
	"time"

	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// EventRepository provides access to event data
type EventRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventRepository {
	return &EventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

func (r *EventRepository) searchScope(ctx context.Context, f *query.SearchFilter) *gorm.DB {
	whereSQL, args := f.Build().SQL()
	return r.readOnlyDB.WithContext(ctx).
		Model(&models.Event{}).
		Joins("JOIN channels ON channels.id = events.channel_id").
		Where(whereSQL, args...)
}

// Count returns the number of events matching the filter
func (r *EventRepository) Count(ctx context.Context, f *query.SearchFilter) (int64, error) {
	var total int64
	err := r.searchScope(ctx, f).Count(&total).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count events")
	}
	return total, nil
}

// Search returns one page of events matching the filter. The predicate
// is identical to Count; only ordering and pagination are added.
func (r *EventRepository) Search(ctx context.Context, f *query.SearchFilter) ([]models.Event, error) {
	orderBy, err := f.OrderBy()
	if err != nil {
		return nil, err
	}

	var events []models.Event
	err = r.searchScope(ctx, f).
		Preload("Channel").
		Order(orderBy).
		Limit(f.PageSize).
		Offset(f.Offset()).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to search events")
	}
	return events, nil
}

// FindByID loads a single event joined with its active channel.
// A missing or inactive-channel event yields (nil, nil).
func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN channels ON channels.id = events.channel_id AND channels.is_active").
		Preload("Channel").
		Where("events.id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get event by id")
	}
	return &event, nil
}

// IncrementViewCount bumps the view counter atomically in the store
func (r *EventRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return errors.Wrap(err, "failed to increment view count")
	}
	return nil
}

// CompareRows returns active events on active channels matching the
// keyword, ordered by channel then best discount first so the caller
// can group them with a single stable pass.
func (r *EventRepository) CompareRows(ctx context.Context, keyword string) ([]models.Event, error) {
	pattern := "%" + keyword + "%"
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN channels ON channels.id = events.channel_id").
		Preload("Channel").
		Where("channels.is_active = ?", true).
		Where("events.status = ?", string(models.StatusActive)).
		Where("(events.title ILIKE ? OR events.target_products ILIKE ? OR events.benefit_summary ILIKE ?)",
			pattern, pattern, pattern).
		Order("events.channel_id, events.discount_rate DESC NULLS LAST").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load comparison rows")
	}
	return events, nil
}

// Overview returns the global dashboard counters
func (r *EventRepository) Overview(ctx context.Context) (*models.DashboardOverview, error) {
	var overview models.DashboardOverview
	err := r.readOnlyDB.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) FILTER (WHERE events.status = 'ACTIVE')  AS active_events,
			COUNT(*) FILTER (WHERE events.status = 'PENDING') AS pending_events,
			COUNT(*) FILTER (WHERE events.status = 'ENDED')   AS ended_events,
			(SELECT COUNT(*) FROM channels WHERE channels.is_active) AS active_channels,
			COALESCE(ROUND(AVG(events.discount_rate) FILTER (
				WHERE events.status = 'ACTIVE' AND events.discount_rate IS NOT NULL), 2), 0) AS avg_discount_rate
		FROM events
		JOIN channels ON channels.id = events.channel_id AND channels.is_active`).
		Scan(&overview).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dashboard overview")
	}
	return &overview, nil
}

// ChannelStats returns total and active event counts per active channel
func (r *EventRepository) ChannelStats(ctx context.Context) ([]models.ChannelStats, error) {
	var stats []models.ChannelStats
	err := r.readOnlyDB.WithContext(ctx).Raw(`
		SELECT
			channels.id   AS channel_id,
			channels.name AS channel_name,
			channels.code AS channel_code,
			COUNT(events.id) AS total_events,
			COUNT(events.id) FILTER (WHERE events.status = 'ACTIVE') AS active_events
		FROM channels
		LEFT JOIN events ON events.channel_id = channels.id
		WHERE channels.is_active
		GROUP BY channels.id, channels.name, channels.code
		ORDER BY active_events DESC`).
		Scan(&stats).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load channel stats")
	}
	return stats, nil
}

// CreationTrend returns per-day creation counts since the given time.
// Days without creations produce no row.
func (r *EventRepository) CreationTrend(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	var trend []models.DailyCount
	err := r.readOnlyDB.WithContext(ctx).Raw(`
		SELECT
			to_char(events.created_at::date, 'YYYY-MM-DD') AS date,
			COUNT(*) AS count
		FROM events
		JOIN channels ON channels.id = events.channel_id AND channels.is_active
		WHERE events.created_at >= ?
		GROUP BY 1
		ORDER BY 1`, since).
		Scan(&trend).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load creation trend")
	}
	return trend, nil
}

// EndingBetween returns active events whose end date falls inside
// (from, to], soonest first
func (r *EventRepository) EndingBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN channels ON channels.id = events.channel_id").
		Preload("Channel").
		Where("channels.is_active = ?", true).
		Where("events.status = ?", string(models.StatusActive)).
		Where("events.end_date > ? AND events.end_date <= ?", from, to).
		Order("events.end_date ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ending events")
	}
	return events, nil
}

// MostPopular returns active events ranked by weighted popularity
func (r *EventRepository) MostPopular(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN channels ON channels.id = events.channel_id").
		Preload("Channel").
		Where("channels.is_active = ?", true).
		Where("events.status = ?", string(models.StatusActive)).
		Order("events.favorite_count * 3 + events.view_count DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load popular events")
	}
	return events, nil
}

// ChannelRepository provides access to channel data
type ChannelRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ChannelRepository {
	return &ChannelRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListActive returns all active channels ordered by name
func (r *ChannelRepository) ListActive(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.readOnlyDB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&channels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active channels")
	}
	return channels, nil
}

// ViewLogRepository provides access to event view logs
type ViewLogRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewViewLogRepository creates a new view log repository
func NewViewLogRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ViewLogRepository {
	return &ViewLogRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts one view log row
func (r *ViewLogRepository) Create(ctx context.Context, viewLog *models.EventViewLog) error {
	if viewLog.ID == uuid.Nil {
		viewLog.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(viewLog).Error
	if err != nil {
		return errors.Wrap(err, "failed to create view log")
	}
	return nil
}
