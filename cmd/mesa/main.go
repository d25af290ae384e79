package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/ohsdesk/mesa/internal/config"
	"github.com/ohsdesk/mesa/internal/engine"
	"github.com/ohsdesk/mesa/internal/notify"
	"github.com/ohsdesk/mesa/internal/remote"
	"github.com/ohsdesk/mesa/internal/remote/postgres"
	"github.com/ohsdesk/mesa/internal/server"
	redisstore "github.com/ohsdesk/mesa/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("MESA_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("MESA_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Select the upstream task service backend.
	var svc remote.TaskService
	switch cfg.Backend.Mode {
	case config.BackendPostgres:
		pg, pgErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked in config.validate
		if pgErr != nil {
			return pgErr
		}
		defer pg.Close()
		svc = pg
	default:
		svc = remote.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout, log.Logger)
	}

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Notification fan-out: log always, Redis notices for connected
	// clients, Slack ops channel when configured.
	sinks := notify.Multi{
		notify.NewLogSink(log.Logger),
		notify.NewPubSubSink(pubsub, log.Logger),
	}
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		sinks = append(sinks, notify.NewSlackSink(slackClient, cfg.Slack.Channel, log.Logger))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack notices enabled")
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Per-scope table engines with idle expiry.
	manager := engine.NewManager(ctx, svc, sinks, pubsub, cfg.Session.IdleTTL, log.Logger)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, manager, svc, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("backend", cfg.Backend.Mode).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
