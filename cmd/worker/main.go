package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DimosMssd/dating-app/internal/config"
	"github.com/DimosMssd/dating-app/internal/lib/logger/sl"
	"github.com/DimosMssd/dating-app/internal/notifications"
	"github.com/DimosMssd/dating-app/internal/worker"
	"github.com/DimosMssd/dating-app/pkg/database"
	"github.com/DimosMssd/dating-app/pkg/kafka"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.LoadConfig()
	logger := sl.Setup(cfg.Server.Environment)

	if cfg.Kafka.Broker == "" || cfg.Redis.Addr == "" {
		logger.Error("KAFKA_BROKER and REDIS_ADDR are required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Redis for the notification inboxes
	clients, err := database.NewClients(ctx, "", database.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("Failed to initialize database clients", sl.Err(err))
		os.Exit(1)
	}
	defer clients.Close()
	logger.Info("✅ Connected to Redis")

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(ctx, cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		logger.Error("Failed to create Kafka consumer", sl.Err(err))
		os.Exit(1)
	}
	defer consumer.Close()
	logger.Info("✅ Connected to Kafka", "group", cfg.Kafka.Group)

	inbox := notifications.NewInbox(clients.Redis, cfg.Notifications.Max)
	w := worker.NewWorker(cfg.Kafka.Topic, inbox, consumer, logger)

	if err := w.Start(ctx); err != nil {
		logger.Error("Worker error", sl.Err(err))
		os.Exit(1)
	}
}
