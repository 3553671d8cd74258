package cmd

import (
	"context"
	"fmt"
	"time"

	"nerdbot/bot"
	"nerdbot/bot/changelog"
	"nerdbot/config"
	"nerdbot/database"
	"nerdbot/events"
	"nerdbot/repository"
	"nerdbot/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.Info("Starting nerdbot...")

	cl, err := changelog.Load()
	if err != nil {
		return fmt.Errorf("failed to load changelog: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	eventBus.SubscribeAll(auditEvent)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		db.Close()
		return err
	}

	// Initialize services
	log.Info("Initializing services...")
	notifier := bot.NewChannelNotifier(session, cfg.CommandPrefix)
	locks := service.NewClaimableLocks()
	clock := service.SystemClock()
	roller := service.RandomRoller()

	services := bot.Services{
		Spawn:      service.NewSpawnService(uowFactory, notifier, locks, clock, roller, service.SpawnSettingsFromConfig(cfg)),
		Claim:      service.NewClaimService(uowFactory, notifier, locks, clock, roller, service.ClaimSettingsFromConfig(cfg)),
		Score:      service.NewScoreService(uowFactory, cfg.StartingCoins),
		Guild:      service.NewGuildService(uowFactory, clock),
		Moderation: service.NewModerationService(uowFactory, bot.NewChannelPermissionSetter(session)),
	}

	// Initialize Discord bot
	log.Info("Connecting to Discord...")
	discordBot := bot.New(bot.Config{
		CommandPrefix:            cfg.CommandPrefix,
		ReactionRepliesPerMinute: cfg.ReactionRepliesPerMinute,
	}, session, services, cl)
	if err := discordBot.Start(); err != nil {
		db.Close()
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"prefix":      cfg.CommandPrefix,
		"changelog":   cl.LatestVersion(),
	}).Info("Bot is running")
	<-ctx.Done()

	log.Info("Shutting down bot...")
	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	// Give in-flight event handlers a moment before the pool goes away
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
	}

	log.Info("Closing database connection...")
	db.Close()
	log.Info("Shutdown completed")

	return nil
}

func configureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// auditEvent logs every committed domain event
func auditEvent(_ context.Context, event events.Event) {
	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"event":     fmt.Sprintf("%+v", event),
	}).Info("Domain event")
}
