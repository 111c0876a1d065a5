package query

import (
	"fmt"
	"strings"
	"time"

	"example.com/promo/services/events/internal/models"
)

const (
	// DefaultPageSize applies when no page size is requested
	DefaultPageSize = 20
	// MaxPageSize caps a requested page size
	MaxPageSize = 100

	defaultSortBy    = "start_date"
	defaultSortOrder = "DESC"
)

// SearchFilter is the explicit, optionally-populated filter set for an
// event search. Absent fields contribute no predicate.
type SearchFilter struct {
	Channel   *string             `json:"channel,omitempty" form:"channel"`
	Status    *models.EventStatus `json:"status,omitempty" form:"status"`
	Keyword   *string             `json:"keyword,omitempty" form:"keyword"`
	StartDate *time.Time          `json:"start_date,omitempty" form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time          `json:"end_date,omitempty" form:"end_date" time_format:"2006-01-02"`
	Page      int                 `json:"page" form:"page"`
	PageSize  int                 `json:"page_size" form:"page_size"`
	SortBy    string              `json:"sort_by" form:"sort_by"`
	SortOrder string              `json:"sort_order" form:"sort_order"`
}

// Normalize applies defaults and bounds in place so that logically
// identical filters compare and serialize identically.
func (f *SearchFilter) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.SortBy == "" {
		f.SortBy = defaultSortBy
	}
	if f.SortOrder == "" {
		f.SortOrder = defaultSortOrder
	}
	f.SortOrder = strings.ToUpper(f.SortOrder)
}

// Offset is the zero-based row offset of the requested page
func (f *SearchFilter) Offset() int {
	return f.Page * f.PageSize
}

// Build renders the predicate for this filter. The active-channel
// clause is always present; each set field appends exactly one clause
// in a fixed order.
func (f *SearchFilter) Build() *Builder {
	b := &Builder{}
	b.Where("channels.is_active = ?", true)
	if f.Channel != nil {
		b.Where("channels.code = ?", *f.Channel)
	}
	if f.Status != nil {
		b.Where("events.status = ?", string(*f.Status))
	}
	if f.Keyword != nil && *f.Keyword != "" {
		pattern := "%" + *f.Keyword + "%"
		b.Where("(events.title ILIKE ? OR events.benefit_summary ILIKE ? OR events.target_products ILIKE ?)",
			pattern, pattern, pattern)
	}
	if f.StartDate != nil {
		b.Where("events.start_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		b.Where("events.end_date <= ?", *f.EndDate)
	}
	return b
}

// OrderBy renders the validated ORDER BY expression for this filter
func (f *SearchFilter) OrderBy() (string, error) {
	return OrderBy(f.SortBy, f.SortOrder)
}

// CacheKey serializes the normalized filter in fixed field order, so
// two logically identical filter sets always map to the same key
// regardless of how they were assembled.
func (f *SearchFilter) CacheKey() string {
	var sb strings.Builder
	writeField(&sb, "channel", strPtr(f.Channel))
	writeField(&sb, "status", statusPtr(f.Status))
	writeField(&sb, "keyword", strPtr(f.Keyword))
	writeField(&sb, "start_date", datePtr(f.StartDate))
	writeField(&sb, "end_date", datePtr(f.EndDate))
	writeField(&sb, "page", fmt.Sprintf("%d", f.Page))
	writeField(&sb, "page_size", fmt.Sprintf("%d", f.PageSize))
	writeField(&sb, "sort_by", f.SortBy)
	writeField(&sb, "sort_order", f.SortOrder)
	return strings.TrimSuffix(sb.String(), "|")
}

func writeField(sb *strings.Builder, name, value string) {
	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(value)
	sb.WriteByte('|')
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func statusPtr(p *models.EventStatus) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

func datePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format("2006-01-02")
}
