package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/saulo-duarte/chronos-autopilot/internal/container"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon and the operator API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Address for the operator API (overrides listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := config.WithContext(ctx)

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		settings.Listen = listen
	}

	c, err := openContainer(ctx, container.ModeDaemon)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := &http.Server{
		Addr:              settings.Listen,
		Handler:           c.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("listen", settings.Listen).Info("Operator API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	refreshDone := make(chan error, 1)
	go func() {
		refreshDone <- c.SchedulerContainer.Refresher.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown requested")
	case runErr = <-serverErr:
	case runErr = <-refreshDone:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Operator API did not shut down cleanly")
	}
	if err := c.SchedulerContainer.Scheduler.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("In-flight meetings did not finish before shutdown")
	}
	log.Info("Stopped")
	return runErr
}
