package handlers

import (
	"net/http"
	"time"

	"example.com/promo/services/events/internal/models"
	"example.com/promo/services/events/internal/query"
	"example.com/promo/services/events/internal/repositories"
	"example.com/promo/services/events/internal/services"
	"example.com/promo/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService      *services.EventService
	dashboardService  *services.DashboardService
	comparisonService *services.ComparisonService
	channels          *repositories.ChannelRepository
	tracer            tracing.Tracer
}

// NewEventHandler creates a new event handler
func NewEventHandler(
	eventService *services.EventService,
	dashboardService *services.DashboardService,
	comparisonService *services.ComparisonService,
	channels *repositories.ChannelRepository,
	tracer tracing.Tracer,
) *EventHandler {
	return &EventHandler{
		eventService:      eventService,
		dashboardService:  dashboardService,
		comparisonService: comparisonService,
		channels:          channels,
		tracer:            tracer,
	}
}

// RegisterRoutes registers the event routes
func (h *EventHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.GET("/events", h.HandleSearchEvents)
	api.GET("/events/:id", h.HandleGetEvent)
	api.GET("/events/:id/consultation", h.HandleConsultationText)
	api.GET("/dashboard", h.HandleDashboard)
	api.GET("/channels", h.HandleListChannels)
	api.GET("/channels/compare", h.HandleCompareChannels)
}

// searchRequest is the loosely-typed query surface; it is validated and
// converted into an explicit filter before reaching the query builder.
type searchRequest struct {
	Channel   string `form:"channel"`
	Status    string `form:"status"`
	Keyword   string `form:"keyword"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

const dateLayout = "2006-01-02"

func (r *searchRequest) toFilter() (*query.SearchFilter, error) {
	filter := &query.SearchFilter{
		Page:      r.Page,
		PageSize:  r.PageSize,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
	}
	if r.Channel != "" {
		filter.Channel = &r.Channel
	}
	if r.Status != "" {
		status := models.EventStatus(r.Status)
		if !status.Valid() {
			return nil, errors.Errorf("unknown status %q", r.Status)
		}
		filter.Status = &status
	}
	if r.Keyword != "" {
		filter.Keyword = &r.Keyword
	}
	if r.StartDate != "" {
		t, err := time.Parse(dateLayout, r.StartDate)
		if err != nil {
			return nil, errors.New("start_date must be YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if r.EndDate != "" {
		t, err := time.Parse(dateLayout, r.EndDate)
		if err != nil {
			return nil, errors.New("end_date must be YYYY-MM-DD")
		}
		filter.EndDate = &t
	}
	return filter, nil
}

// HandleSearchEvents serves GET /api/v1/events
func (h *EventHandler) HandleSearchEvents(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-events")
	defer h.tracer.EndTransaction(txn)

	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search parameters"})
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.eventService.SearchEvents(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, query.ErrInvalidSort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort parameters"})
			return
		}
		log.Error().Err(err).Msg("Event search failed")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event search failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleGetEvent serves GET /api/v1/events/:id
func (h *EventHandler) HandleGetEvent(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-event")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var viewerID *string
	if v := c.Query("viewer_id"); v != "" {
		viewerID = &v
	}

	event, err := h.eventService.GetEventByID(c.Request.Context(), id, viewerID)
	if err != nil {
		log.Error().Err(err).Str("event_id", id.String()).Msg("Event lookup failed")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event lookup failed"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// HandleConsultationText serves GET /api/v1/events/:id/consultation
func (h *EventHandler) HandleConsultationText(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-consultation-text")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	text, err := h.eventService.GenerateConsultationText(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		log.Error().Err(err).Str("event_id", id.String()).Msg("Consultation text generation failed")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "consultation text generation failed"})
		return
	}

	c.JSON(http.StatusOK, text)
}

// HandleDashboard serves GET /api/v1/dashboard
func (h *EventHandler) HandleDashboard(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-dashboard")
	defer h.tracer.EndTransaction(txn)

	data, err := h.dashboardService.GetDashboardData(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Dashboard aggregation failed")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard lookup failed"})
		return
	}

	c.JSON(http.StatusOK, data)
}

// HandleListChannels serves GET /api/v1/channels
func (h *EventHandler) HandleListChannels(c *gin.Context) {
	channels, err := h.channels.ListActive(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Channel listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "channel listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// HandleCompareChannels serves GET /api/v1/channels/compare
func (h *EventHandler) HandleCompareChannels(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-compare-channels")
	defer h.tracer.EndTransaction(txn)

	keyword := c.Query("keyword")

	result, err := h.comparisonService.CompareChannels(c.Request.Context(), keyword)
	if err != nil {
		log.Error().Err(err).Str("keyword", keyword).Msg("Channel comparison failed")
		h.tracer.RecordError(txn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "channel comparison failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
