package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DimosMssd/dating-app/internal/api"
	"github.com/DimosMssd/dating-app/internal/auth"
	"github.com/DimosMssd/dating-app/internal/cache"
	"github.com/DimosMssd/dating-app/internal/config"
	"github.com/DimosMssd/dating-app/internal/events"
	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/notifications"
	"github.com/DimosMssd/dating-app/internal/pkg/supabase"
	"github.com/DimosMssd/dating-app/internal/services"
	"github.com/DimosMssd/dating-app/internal/storage"
	"github.com/DimosMssd/dating-app/internal/storage/memory"
	"github.com/DimosMssd/dating-app/internal/storage/postgres"
	"github.com/DimosMssd/dating-app/pkg/database"
	"github.com/DimosMssd/dating-app/pkg/kafka"
)

func main() {
	// A missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	// Load configuration
	cfg := config.LoadConfig()
	logger := sl.Setup(cfg.Server.Environment)
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", sl.Err(err))
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "driver", cfg.Store.Driver, sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("✅ Store ready", "driver", cfg.Store.Driver)

	deps := api.Dependencies{Store: store}

	// Redis backs the profile cache and the notification inbox
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("Failed to connect to Redis", sl.Err(err))
			os.Exit(1)
		}
		defer rdb.Close()
		logger.Info("✅ Connected to Redis")

		store = cache.New(store, rdb, cfg.Cache.TTL, logger)
		deps.Inbox = notifications.NewInbox(rdb, cfg.Notifications.Max)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			logger.Error("Failed to create Kafka producer", sl.Err(err))
			os.Exit(1)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		logger.Info("✅ Connected to Kafka", "topic", cfg.Kafka.Topic)
	}

	hasher := auth.NewHasher(cfg.Bcrypt.Cost)

	var tokens services.TokenIssuer
	if cfg.JWT.Secret != "" {
		issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiration)
		tokens = issuer
		deps.Tokens = issuer
	}

	deps.Auth = services.NewAuthService(store, hasher, tokens, publisher, logger)
	deps.Profiles = services.NewProfileService(store, hasher, publisher, services.LikeMode(cfg.Store.LikeMode), logger)

	server := api.NewServer(cfg, logger, deps)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", sl.Err(err))
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", sl.Err(err))
		}
	}
}

// openStore builds the profile store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), nil

	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoSchema {
			if err := database.CreateSchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return postgres.New(db), nil

	case config.DriverSupabase:
		sb, err := supabase.New(supabase.Config{
			URL:                cfg.Supabase.URL,
			Key:                cfg.Supabase.Key,
			Schema:             cfg.Supabase.Schema,
			BreakerMaxRequests: uint32(cfg.Breaker.MaxRequests),
			BreakerInterval:    cfg.Breaker.Interval,
			BreakerTimeout:     cfg.Breaker.Timeout,
			BreakerFailures:    uint32(cfg.Breaker.Failures),
		}, logger)
		if err != nil {
			return nil, err
		}
		return sb, nil
	}
	return nil, errors.New("unknown store driver " + cfg.Store.Driver)
}
