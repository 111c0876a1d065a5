package cmd

import (
	"os"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/cache"
	"example.com/promo/services/events/internal/database"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/repositories"
	"example.com/promo/services/events/internal/search"
	"example.com/promo/services/events/internal/services"
	"example.com/promo/services/events/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runtimeDeps holds everything both the api and worker commands wire up
type runtimeDeps struct {
	cfg          config.Config
	db           *gorm.DB
	readOnlyDB   *gorm.DB
	cache        *cache.RedisCache
	tracer       tracing.Tracer
	elastic      *search.ElasticClient
	metrics      *metrics.Metrics
	eventRepo    *repositories.EventRepository
	channelRepo  *repositories.ChannelRepository
	eventService *services.EventService
	dashboard    *services.DashboardService
	comparison   *services.ComparisonService
	invalidation *services.InvalidationService
}

// setupRuntime loads config and builds the service graph. The cache,
// tracer and index are all optional collaborators: their absence is
// logged and the service runs degraded, never refuses to start.
func setupRuntime() (*runtimeDeps, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	cacheHealthy := err == nil
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache, _ = cache.NewRedisCache(config.RedisConfig{Enabled: false})
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer, _ = tracing.NewTracer(config.TracingConfig{})
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without indexing")
		elasticClient = nil
	}

	metricsCollector := metrics.NewMetrics()
	metricsCollector.SetHealth("database", true)
	metricsCollector.SetHealth("cache", cacheHealthy)

	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	channelRepo := repositories.NewChannelRepository(db, readOnlyDB)
	viewLogRepo := repositories.NewViewLogRepository(db, readOnlyDB)

	eventService := services.NewEventService(eventRepo, viewLogRepo, redisCache, metricsCollector, tracer, cfg.Cache)
	dashboardService := services.NewDashboardService(eventRepo, redisCache, metricsCollector, tracer, cfg.Cache)
	comparisonService := services.NewComparisonService(eventRepo, redisCache, metricsCollector, tracer, cfg.Cache)

	var indexer services.EventIndexer
	if elasticClient != nil {
		indexer = elasticClient
	}
	invalidationService := services.NewInvalidationService(eventRepo, redisCache, indexer)

	return &runtimeDeps{
		cfg:          cfg,
		db:           db,
		readOnlyDB:   readOnlyDB,
		cache:        redisCache,
		tracer:       tracer,
		elastic:      elasticClient,
		metrics:      metricsCollector,
		eventRepo:    eventRepo,
		channelRepo:  channelRepo,
		eventService: eventService,
		dashboard:    dashboardService,
		comparison:   comparisonService,
		invalidation: invalidationService,
	}, nil
}

// close releases the runtime's external connections
func (d *runtimeDeps) close() {
	if err := d.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close Redis connection")
	}
	if d.readOnlyDB != d.db {
		if err := database.Close(d.readOnlyDB); err != nil {
			log.Warn().Err(err).Msg("Failed to close read-only database connection")
		}
	}
	if err := database.Close(d.db); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}
	d.tracer.Close()
}
