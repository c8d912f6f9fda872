package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/config"
	"github.com/mauv0809/refgrade/internal/database"
	"github.com/mauv0809/refgrade/internal/dedup"
	server "github.com/mauv0809/refgrade/internal/http"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/notifier"
	"github.com/mauv0809/refgrade/internal/notifier/slack"
	"github.com/mauv0809/refgrade/internal/orchestrator"
	"github.com/mauv0809/refgrade/internal/pubsub"
	"github.com/mauv0809/refgrade/internal/sms"
	"github.com/mauv0809/refgrade/internal/store"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	if err := match.ValidatePermissions(); err != nil {
		log.Fatalf("Permission matrix is incomplete: %s", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %s", cfg.Timezone, err)
	}

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	matchStore := store.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	smsClient := sms.NewClient(sms.Config{
		BaseURL:       cfg.SMS.BaseURL,
		APIKey:        cfg.SMS.APIKey,
		Password:      cfg.SMS.Password,
		Sender:        cfg.SMS.Sender,
		Location:      loc,
		RatePerSecond: cfg.SMS.RatePerSecond,
	}, metricsSvc)

	var officeNotifier notifier.Notifier = notifier.Nop{}
	if cfg.Slack.Token != "" && cfg.Slack.ChannelID != "" {
		officeNotifier = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, loc, metricsSvc)
	} else {
		log.Warn("Slack is not configured, office notifications are disabled")
	}

	var publisher pubsub.Publisher = pubsub.Nop{}
	if cfg.ProjectID != "" {
		var closePubsub func()
		publisher, closePubsub = pubsub.New(cfg.ProjectID)
		defer closePubsub()
	} else {
		log.Warn("GCP_PROJECT is not set, domain events are disabled")
	}

	var deduplicator dedup.Deduplicator = dedup.Nop{}
	if cfg.RedisURL != "" {
		redisDedup, closeRedis, err := dedup.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %s", err)
		}
		defer closeRedis()
		deduplicator = redisDedup
	} else {
		log.Warn("REDIS_URL is not set, inbound sms deduplication is disabled")
	}

	orch := orchestrator.New(matchStore, smsClient, officeNotifier, publisher, metricsSvc, orchestrator.Options{
		Location:      loc,
		MatchDuration: cfg.MatchDuration,
	})

	s := server.NewServer(
		orch,
		matchStore,
		metricsSvc,
		metricsHandler,
		deduplicator,
		server.NewAuthenticator(cfg.JWTSecret),
		cfg.SMS.InboundToken,
		loc,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "timezone", cfg.Timezone)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
