package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/promo/services/events/internal/api"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that serves event search, dashboard and channel comparison requests`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := setupRuntime()
	if err != nil {
		return err
	}
	defer deps.close()

	server := api.NewServer(deps.cfg, api.Services{
		Events:     deps.eventService,
		Dashboard:  deps.dashboard,
		Comparison: deps.comparison,
		Channels:   deps.channelRepo,
		Metrics:    deps.metrics,
		Tracer:     deps.tracer,
	})

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	return server.Shutdown(context.Background())
}
