package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Schedule the workers and serve the status API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		srv, err := s.NewHTTPServer()
		if err != nil {
			return err
		}

		if err := s.PriceWorker.Start(); err != nil {
			return fmt.Errorf("start price worker: %w", err)
		}
		if err := s.FeedWorker.Start(); err != nil {
			return fmt.Errorf("start feed worker: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			s.Logger.Info("http server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		var serveErr error
		select {
		case <-ctx.Done():
			s.Logger.Info("shutdown signal received")
		case serveErr = <-errCh:
			s.Logger.Error("http server failed", "error", serveErr)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("graceful http shutdown failed", "error", err)
		}
		// Waits for an in-flight run up to the shutdown timeout.
		if err := s.PriceWorker.Stop(shutdownCtx); err != nil {
			s.Logger.Warn("price worker stop timed out", "error", err)
		}
		if err := s.FeedWorker.Stop(shutdownCtx); err != nil {
			s.Logger.Warn("feed worker stop timed out", "error", err)
		}

		s.Logger.Info("worker stopped")
		return serveErr
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
