package services

import (
	"context"
	"encoding/json"

	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/models"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventIndexer maintains the secondary event index
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// InvalidationService reacts to event-mutation messages from the
// ingestion pipeline: it drops every cache entry the mutation could
// have staled and keeps the secondary index in sync.
type InvalidationService struct {
	events  EventStore
	cache   Cache
	indexer EventIndexer
}

// NewInvalidationService creates a new invalidation service
func NewInvalidationService(events EventStore, c Cache, indexer EventIndexer) *InvalidationService {
	return &InvalidationService{
		events:  events,
		cache:   c,
		indexer: indexer,
	}
}

// ProcessMutationMessage handles one service-bus message
func (s *InvalidationService) ProcessMutationMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var mutation models.EventMutation
	if err := json.Unmarshal(message.Body, &mutation); err != nil {
		return errors.Wrap(err, "failed to unmarshal mutation message")
	}
	if mutation.EventID == uuid.Nil {
		return errors.New("mutation message has no event id")
	}

	return s.HandleMutation(ctx, &mutation)
}

// HandleMutation invalidates the cache entries affected by a mutation
// and re-indexes the event. Cached search results and comparisons are
// dropped wholesale via pattern deletion: any of them may contain the
// mutated row.
func (s *InvalidationService) HandleMutation(ctx context.Context, mutation *models.EventMutation) error {
	if err := s.cache.Delete(ctx, cache.EventCacheKey(mutation.EventID)); err != nil {
		log.Warn().Err(err).Str("event_id", mutation.EventID.String()).Msg("Failed to delete event cache entry")
	}
	if err := s.cache.Delete(ctx, cache.DashboardCacheKey()); err != nil {
		log.Warn().Err(err).Msg("Failed to delete dashboard cache entry")
	}

	searchRemoved, err := s.cache.DeleteByPattern(ctx, cache.SearchKeyPattern())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to delete cached search results")
	}
	compareRemoved, err := s.cache.DeleteByPattern(ctx, cache.CompareKeyPattern())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to delete cached comparisons")
	}

	log.Info().
		Str("event_id", mutation.EventID.String()).
		Str("action", mutation.Action).
		Int("search_entries_removed", searchRemoved).
		Int("compare_entries_removed", compareRemoved).
		Msg("Cache invalidated for event mutation")

	return s.syncIndex(ctx, mutation)
}

func (s *InvalidationService) syncIndex(ctx context.Context, mutation *models.EventMutation) error {
	if s.indexer == nil {
		return nil
	}

	if mutation.Action == "deleted" {
		if err := s.indexer.DeleteEvent(ctx, mutation.EventID); err != nil {
			return errors.Wrap(err, "failed to remove event from index")
		}
		return nil
	}

	event, err := s.events.FindByID(ctx, mutation.EventID)
	if err != nil {
		return errors.Wrap(err, "failed to load mutated event")
	}
	if event == nil {
		// Row vanished or its channel went inactive; drop the document
		if err := s.indexer.DeleteEvent(ctx, mutation.EventID); err != nil {
			return errors.Wrap(err, "failed to remove stale event from index")
		}
		return nil
	}

	if err := s.indexer.IndexEvent(ctx, event); err != nil {
		return errors.Wrap(err, "failed to index mutated event")
	}
	return nil
}
