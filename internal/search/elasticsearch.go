package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient maintains the secondary event index consumed by the
// analytics stack. The API read path never depends on it.
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexEvent upserts one event document keyed by event id
func (c *ElasticClient) IndexEvent(ctx context.Context, event *models.Event) error {
	log.Info().Str("event_id", event.ID.String()).Msg("indexing event")

	doc := map[string]interface{}{
		"id":              event.ID.String(),
		"channel_id":      event.ChannelID.String(),
		"channel_code":    event.Channel.Code,
		"channel_name":    event.Channel.Name,
		"title":           event.Title,
		"subtitle":        event.Subtitle,
		"status":          event.Status,
		"start_date":      event.StartDate,
		"end_date":        event.EndDate,
		"discount_rate":   event.DiscountRate,
		"discount_amount": event.DiscountAmount,
		"benefit_summary": event.BenefitSummary,
		"target_products": event.TargetProducts,
		"tags":            []string(event.Tags),
		"favorite_count":  event.FavoriteCount,
		"view_count":      event.ViewCount,
		"indexed_at":      time.Now().UTC().Format(time.RFC3339),
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to index event")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("failed to index event: %s", res.String())
	}
	return nil
}

// DeleteEvent removes one event document; a missing document is fine
func (c *ElasticClient) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: id.String(),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to delete event document")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("failed to delete event document: %s", res.String())
	}
	return nil
}

// Ping checks cluster reachability for the health endpoint
func (c *ElasticClient) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elasticsearch ping failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("elasticsearch ping failed: %s", res.String())
	}
	return nil
}
