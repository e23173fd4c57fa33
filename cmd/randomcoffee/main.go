package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/tjansson60/slackrandomcoffee/internal/coffee"
	"github.com/tjansson60/slackrandomcoffee/internal/config"
	slackclient "github.com/tjansson60/slackrandomcoffee/internal/messenger/slack"
	"github.com/tjansson60/slackrandomcoffee/internal/scheduler"
	"github.com/tjansson60/slackrandomcoffee/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg)

	api := slacklib.New(cfg.SlackBotToken)
	limiter := rate.NewLimiter(rate.Limit(cfg.SlackRPS), 1)
	client := slackclient.NewClient(api, limiter, cfg.MentionMembers())

	generator := coffee.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano()))) //nolint:gosec // pairing needs no crypto randomness
	svc := coffee.NewService(client, generator, cfg.Channel, cfg.PostTo(), cfg.Lookback, log.Logger)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One-shot mode: run a single pairing round and exit.
	if cfg.Schedule == "" {
		return svc.Run(ctx)
	}

	// Scheduled mode: cron-driven rounds plus a health endpoint.
	status := server.NewRunStatus()
	sched := scheduler.New(log.Logger)
	addErr := sched.Add(cfg.Schedule, func(ctx context.Context) error {
		runErr := svc.Run(ctx)
		status.Record(runErr)
		return runErr
	})
	if addErr != nil {
		return addErr
	}

	sched.Start()
	log.Info().Str("schedule", cfg.Schedule).Str("channel", cfg.Channel).Msg("scheduler started")

	srv := server.New(cfg.HealthAddr, status)
	go func() {
		log.Info().Str("addr", cfg.HealthAddr).Msg("health server listening")
		if srvErr := srv.Start(); srvErr != nil {
			log.Error().Err(srvErr).Msg("health server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if stopErr := sched.Stop(shutdownCtx); stopErr != nil {
		log.Warn().Err(stopErr).Msg("scheduler did not stop cleanly")
	}
	return srv.Shutdown(shutdownCtx)
}

// setupLogging configures the global zerolog logger from config.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
