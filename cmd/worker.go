package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/promo/services/events/internal/messaging"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that consumes event-mutation messages
for cache invalidation and index sync, and keeps the dashboard cache warm`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := setupRuntime()
	if err != nil {
		return err
	}
	defer deps.close()

	g, ctx := errgroup.WithContext(ctx)

	// Consume mutation messages from the ingestion pipeline
	if deps.cfg.Azure.QueueConnStr != "" {
		bus, err := messaging.NewServiceBusClient(deps.cfg.Azure)
		if err != nil {
			return err
		}
		defer bus.Close()

		g.Go(func() error {
			log.Info().Str("queue", deps.cfg.Azure.QueueName).Msg("Starting event-mutation processor")
			return bus.ProcessMessages(ctx, deps.invalidation.ProcessMutationMessage)
		})
	} else {
		log.Warn().Msg("No Service Bus connection string configured, cache invalidation messages will not be consumed")
	}

	// Keep the dashboard cache warm so API readers rarely pay the
	// five-query aggregation
	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				log.Info().Msg("Refreshing dashboard cache")
				if err := deps.dashboard.RefreshDashboard(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to refresh dashboard cache")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()
		log.Info().Msg("Dashboard warm job scheduled")

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	log.Info().Msg("Worker shut down")
	return nil
}
