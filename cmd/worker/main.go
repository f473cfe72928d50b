package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/ticket-marketplace/internal/app"
	"github.com/riskibarqy/ticket-marketplace/internal/config"
	"github.com/riskibarqy/ticket-marketplace/internal/observability"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

var rootCmd = &cobra.Command{
	Use:           "worker",
	Short:         "Ticket price reconciliation worker",
	Long:          "Keeps fixture offers and minimum prices in sync with ticket suppliers, and imports schedules and affiliate feeds.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Default().Warn("could not load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Default().Error("command failed", "error", err)
		_ = logging.Default().Sync()
		os.Exit(1)
	}
}

// session is what every subcommand gets: a wired App plus the cleanup for
// it and the telemetry exporters.
type session struct {
	*app.App
	shutdown []func(context.Context) error
}

func bootstrap(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel).With("service", cfg.ServiceName)
	logging.SetDefault(logger)

	s := &session{}
	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.shutdown = append(s.shutdown, shutdownUptrace)

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.shutdown = append(s.shutdown, func(context.Context) error { return stopPyroscope() })

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.App = a
	return s, nil
}

// close releases the app first, then flushes exporters in reverse order.
func (s *session) close(ctx context.Context) {
	logger := logging.Default()
	if s.App != nil {
		if err := s.App.Close(); err != nil {
			logger.Warn("close app failed", "error", err)
		}
	}
	ctx = context.WithoutCancel(ctx)
	for i := len(s.shutdown) - 1; i >= 0; i-- {
		if err := s.shutdown[i](ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	_ = logger.Sync()
}
