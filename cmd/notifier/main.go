package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"masterbook/internal/notifications"
	"masterbook/pkg/config"
	"masterbook/pkg/kafka"
	"masterbook/pkg/kafka/middleware"
)

const ServiceName = "masterbook-notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(ServiceName)
	if !cfg.KafkaEnabled {
		cfg.Log.Fatal("Notifier requires KAFKA_ENABLED=true")
	}
	defer cfg.GracefulShutdown()

	dispatcher := notifications.NewDispatcher(newSender(ctx, cfg), cfg.Log.With("component", "dispatcher"))

	consumer, err := kafka.NewConsumer(
		cfg.Kafka,
		cfg.KafkaBookingTopic,
		cfg.KafkaConsumerGroup,
		cfg.KafkaBookingDLQTopic,
		dispatcher.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(middleware.LoggingConsumerMiddleware(cfg.Log))
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	}()

	cfg.Log.Info("Notifier consuming booking events",
		"topic", cfg.KafkaBookingTopic,
		"group", cfg.KafkaConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

func newSender(ctx context.Context, cfg *config.Config) notifications.PushSender {
	if !cfg.PushEnabled {
		cfg.Log.Warn("Push delivery disabled; pushes are only logged")
		return notifications.LogSender{Log: cfg.Log}
	}

	cfg.SetFirebase(ctx)
	sender, err := notifications.NewFCMSender(ctx, cfg.Client.Firebase)
	if err != nil {
		cfg.Log.Fatal("Failed to create FCM sender", "error", err)
	}
	return sender
}
