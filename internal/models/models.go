package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// EventStatus is the lifecycle state of a promotional event.
// Transitions are driven by the external ingestion pipeline; this
// service only filters on the stored value.
type EventStatus string

const (
	StatusPending   EventStatus = "PENDING"
	StatusActive    EventStatus = "ACTIVE"
	StatusEnded     EventStatus = "ENDED"
	StatusCancelled EventStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses
func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusEnded, StatusCancelled:
		return true
	}
	return false
}

// View log types, recorded for analytics
const (
	ViewTypeDetail       = "detail"
	ViewTypeConsultation = "consultation"
)

// ErrEventNotFound is returned when an event id cannot be resolved
// on a path that requires the event to exist.
var ErrEventNotFound = errors.New("event not found")

// Channel represents a sales platform hosting promotional events
type Channel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"not null;uniqueIndex" json:"code"`
	Type      string    `json:"type"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	IconURL   string    `json:"icon_url"`
	Events    []Event   `gorm:"foreignKey:ChannelID" json:"-"`
}

// Event represents a promotion or livestream broadcast record
type Event struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	ChannelID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"channel_id"`
	Title          string         `gorm:"not null" json:"title"`
	Subtitle       string         `json:"subtitle"`
	StartDate      *time.Time     `gorm:"index" json:"start_date"`
	EndDate        *time.Time     `gorm:"index" json:"end_date"`
	BroadcastDate  *time.Time     `json:"broadcast_date"`
	DiscountRate   *int           `json:"discount_rate"`
	DiscountAmount *int           `json:"discount_amount"`
	BenefitSummary string         `json:"benefit_summary"`
	BenefitDetail  string         `json:"benefit_detail"`
	TargetProducts string         `json:"target_products"`
	EventURL       string         `json:"event_url"`
	ThumbnailURL   string         `json:"thumbnail_url"`
	Status         EventStatus    `gorm:"not null;index" json:"status"`
	Priority       int            `gorm:"not null;default:0" json:"priority"`
	FavoriteCount  int64          `gorm:"not null;default:0" json:"favorite_count"`
	ViewCount      int64          `gorm:"not null;default:0" json:"view_count"`
	Tags           pq.StringArray `gorm:"type:text[]" json:"tags"`
	Channel        Channel        `gorm:"foreignKey:ChannelID" json:"channel"`
}

// PopularityScore weights favorites 3x against raw views
func (e *Event) PopularityScore() int64 {
	return e.FavoriteCount*3 + e.ViewCount
}

// EventViewLog records a single view of an event. Insert-only and
// written fire-and-forget off the read path.
type EventViewLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	ViewerID  *string   `json:"viewer_id"`
	ViewType  string    `gorm:"not null" json:"view_type"`
}

// Pagination describes one page of a search result
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes page metadata; TotalPages is zero iff Total is zero
func NewPagination(total int64, page, pageSize int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return Pagination{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SearchResult is the cached unit for an event search
type SearchResult struct {
	Rows       []Event    `json:"rows"`
	Pagination Pagination `json:"pagination"`
}

// DashboardOverview holds the global counters of the dashboard
type DashboardOverview struct {
	ActiveEvents    int64   `json:"active_events"`
	PendingEvents   int64   `json:"pending_events"`
	EndedEvents     int64   `json:"ended_events"`
	ActiveChannels  int64   `json:"active_channels"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
}

// ChannelStats is one row of the per-channel dashboard breakdown
type ChannelStats struct {
	ChannelID    uuid.UUID `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	ChannelCode  string    `json:"channel_code"`
	TotalEvents  int64     `json:"total_events"`
	ActiveEvents int64     `json:"active_events"`
}

// DailyCount is one day of the creation trend
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UrgentEvent is an active event ending within the urgency window
type UrgentEvent struct {
	Event
	HoursRemaining float64 `json:"hours_remaining"`
}

// PopularEvent is an active event annotated with its popularity score
type PopularEvent struct {
	Event
	Score int64 `json:"score"`
}

// DashboardData is the single cache unit produced by the aggregator
type DashboardData struct {
	Overview      DashboardOverview `json:"overview"`
	ChannelStats  []ChannelStats    `json:"channel_stats"`
	CreationTrend []DailyCount      `json:"creation_trend"`
	UrgentEvents  []UrgentEvent     `json:"urgent_events"`
	PopularEvents []PopularEvent    `json:"popular_events"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// ComparisonEvent is the per-event slice of a channel comparison group
type ComparisonEvent struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	DiscountRate *int      `json:"discount_rate"`
	EventURL     string    `json:"event_url"`
}

// ChannelComparisonGroup groups the matches of one channel with the
// best discount seen among them. Transient, never persisted.
type ChannelComparisonGroup struct {
	ChannelID    uuid.UUID         `json:"channel_id"`
	ChannelName  string            `json:"channel_name"`
	ChannelCode  string            `json:"channel_code"`
	BestDiscount int               `json:"best_discount"`
	Events       []ComparisonEvent `json:"events"`
}

// ComparisonResult is the cached unit for a channel comparison
type ComparisonResult struct {
	Keyword            string                   `json:"keyword"`
	Comparison         []ChannelComparisonGroup `json:"comparison"`
	RecommendedChannel *string                  `json:"recommended_channel"`
	Reason             string                   `json:"reason,omitempty"`
	Message            string                   `json:"message,omitempty"`
}

// ConsultationText is the rendered consultation template for an event
type ConsultationText struct {
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	Text       string    `json:"text"`
}

// EventMutation is the message the ingestion pipeline publishes when
// an event row changes; the worker consumes it to invalidate caches.
type EventMutation struct {
	EventID     uuid.UUID `json:"event_id"`
	ChannelCode string    `json:"channel_code"`
	Action      string    `json:"action"`
}
