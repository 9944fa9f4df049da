package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/t1000cgm/companion/internal/config"
	"github.com/t1000cgm/companion/internal/database"
	"github.com/t1000cgm/companion/internal/dexcom"
	"github.com/t1000cgm/companion/internal/domain"
	"github.com/t1000cgm/companion/internal/engine"
	"github.com/t1000cgm/companion/internal/logger"
	"github.com/t1000cgm/companion/internal/notify"
	"github.com/t1000cgm/companion/internal/repository"
	"github.com/t1000cgm/companion/internal/services"
	"github.com/t1000cgm/companion/internal/storage"
	"github.com/t1000cgm/companion/internal/watch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	logger.Info("Starting CGM companion")

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	settingsSvc, err := services.NewSettingsService(store)
	if err != nil {
		logger.Fatalf("Failed to load settings: %v", err)
	}
	cacheSvc := services.NewCacheService(store)
	alertSvc, err := services.NewAlertService(store, settingsSvc)
	if err != nil {
		logger.Fatalf("Failed to load alert state: %v", err)
	}

	client := dexcom.NewClient(settingsSvc)
	sender := buildSender(cfg)
	archive := buildArchive(cfg)

	syncSvc := services.NewSyncService(settingsSvc, cacheSvc, alertSvc, client, sender, archive)
	eng := engine.New(syncSvc, settingsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SIGUSR1 forces an immediate cycle, same as the watch's "request
	// data" gesture.
	refresh := make(chan os.Signal, 1)
	signal.Notify(refresh, syscall.SIGUSR1)
	go func() {
		for range refresh {
			logger.Info("Refresh requested")
			eng.RequestRefresh()
		}
	}()

	if err := eng.Run(ctx); err != nil {
		logger.Fatalf("Engine stopped with error: %v", err)
	}
	logger.Info("Shutdown complete")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Redis.Enabled() {
		logger.Info("Using Redis storage", "host", cfg.Redis.Host)
		return storage.NewRedisStore(cfg.Redis.Host, cfg.Redis.Port)
	}
	logger.Info("Using file storage", "dir", cfg.DataDir)
	return storage.NewFileStore(cfg.DataDir)
}

func buildSender(cfg *config.Config) domain.Sender {
	var sender domain.Sender = watch.NewLogSender()
	if cfg.Telegram.Enabled() {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, sender)
		if err != nil {
			logger.Warn("Telegram mirror disabled", "error", err)
			return sender
		}
		sender = notifier
	}
	return sender
}

func buildArchive(cfg *config.Config) domain.ReadingArchive {
	if !cfg.DB.Enabled {
		return nil
	}
	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Warn("Readings archive disabled", "error", err)
		return nil
	}
	logger.Info("Readings archive enabled", "db", cfg.DB.DBName)
	return repository.NewReadingRepository(db)
}
