package main

import (
	"context"

	availabilityhandler "masterbook/internal/availability/handler"
	availabilityrepo "masterbook/internal/availability/repository"
	availabilityservice "masterbook/internal/availability/service"
	availabilityvalidator "masterbook/internal/availability/validator"
	bookingsevents "masterbook/internal/bookings/events"
	bookingshandler "masterbook/internal/bookings/handler"
	bookingsrepo "masterbook/internal/bookings/repository"
	bookingsservice "masterbook/internal/bookings/service"
	bookingsvalidator "masterbook/internal/bookings/validator"
	chatshandler "masterbook/internal/chats/handler"
	chatsrepo "masterbook/internal/chats/repository"
	chatsservice "masterbook/internal/chats/service"
	"masterbook/internal/health"
	"masterbook/pkg/app"
	"masterbook/pkg/auth"
	"masterbook/pkg/config"
	"masterbook/pkg/kafka"
	"masterbook/pkg/kafka/middleware"
	"masterbook/pkg/lock"
	"masterbook/pkg/telemetry"
	"masterbook/pkg/validation"
)

const ServiceName = "masterbook-api"

func main() {
	ctx := context.Background()
	cfg := config.Load(ServiceName)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OtelEnabled,
		ServiceName:  ServiceName,
		OTLPEndpoint: cfg.OtelEndpoint,
		SampleRatio:  cfg.OtelSamplingRatio,
	})
	if err != nil {
		cfg.Log.Fatal("Failed to set up tracing", "error", err)
	}

	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}
	if cfg.AuthProvider == config.AuthProviderFirebase {
		cfg.SetFirebase(ctx)
	}

	cfg.Log.Info("Starting masterbook API")
	serverApp := app.NewApplication(cfg)

	validate := validation.New(cfg.Log)
	authenticator := auth.NewAuthenticator(newVerifier(ctx, cfg), cfg.Log)
	publisher := newPublisher(cfg, serverApp)

	availability := availabilityservice.NewAvailabilityService(
		availabilityrepo.NewMongoAvailabilityRepository(cfg),
		availabilityvalidator.NewAvailabilityValidator(validate, cfg.Log),
		cfg,
	)
	chats := chatsservice.NewChatService(chatsrepo.NewMongoChatRepository(cfg), validate, cfg)
	bookings := bookingsservice.NewBookingService(
		bookingsrepo.NewMongoBookingRepository(cfg),
		newLocker(cfg),
		availability,
		chats,
		publisher,
		bookingsvalidator.NewBookingValidator(validate, cfg.DefaultPhoneRegion, cfg.Log),
		cfg,
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "lock_backend", cfg.LockBackend)

	checks := map[string]health.Pinger{
		"mongo": health.PingerFunc(func(ctx context.Context) error { return cfg.Client.Mongo.Ping(ctx, nil) }),
	}
	if cfg.Client.Redis != nil {
		checks["redis"] = health.PingerFunc(func(ctx context.Context) error { return cfg.Client.Redis.Ping(ctx).Err() })
	}

	serverApp.OnShutdown("tracing", shutdownTracing)
	serverApp.SetApp(
		health.NewHealthHandler(checks, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availability, bookings, authenticator, cfg.Log),
		bookingshandler.NewBookingHandler(bookings, authenticator, cfg.Log),
		chatshandler.NewChatHandler(chats, authenticator, cfg.Log),
	)
	serverApp.Run()
}

func newVerifier(ctx context.Context, cfg *config.Config) auth.Verifier {
	if cfg.AuthProvider == config.AuthProviderJWT {
		cfg.Log.Warn("Using shared-secret JWT verifier; do not use in production")
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Client.Firebase)
	if err != nil {
		cfg.Log.Fatal("Failed to create Firebase verifier", "error", err)
	}
	return verifier
}

func newLocker(cfg *config.Config) lock.Locker {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		return lock.NewRedisLocker(cfg.Client.Redis, lock.Options{
			TTL:           cfg.LockTTL,
			Wait:          cfg.LockWaitTimeout,
			RetryInterval: cfg.LockRetryInterval,
		})
	case config.LockBackendMemory:
		cfg.Log.Warn("Using in-process scheduling lock; run a single replica only")
		return lock.NewMemoryLocker(cfg.LockWaitTimeout)
	default:
		return bookingsrepo.NewMongoSchedulingLocker(cfg)
	}
}

func newPublisher(cfg *config.Config, serverApp *app.Application) bookingsevents.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled; booking events are not published")
		return bookingsevents.NopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.KafkaBookingTopic, cfg.KafkaBookingDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(middleware.LoggingProducerMiddleware(cfg.Log))
	serverApp.OnShutdown("kafka-producer", func(context.Context) error { return producer.Close() })

	cfg.Log.Info("Publishing booking events", "topic", cfg.KafkaBookingTopic)
	return bookingsevents.NewKafkaPublisher(producer)
}
