package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"masterbook/pkg/client"
	kafka_config "masterbook/pkg/kafka/config"
	"masterbook/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	RateLimitRPS   float64
	RateLimitBurst int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockBackend       string
	LockTTL           time.Duration
	LockWaitTimeout   time.Duration
	LockRetryInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthProvider            string
	FirebaseCredentialsFile string
	FirebaseProjectID       string
	JWTSecret               string
	JWTIssuer               string

	KafkaEnabled         bool
	KafkaBookingTopic    string
	KafkaBookingDLQTopic string
	KafkaConsumerGroup   string
	Kafka                *kafka_config.Config

	PushEnabled bool

	OtelEnabled       bool
	OtelEndpoint      string
	OtelSamplingRatio float64

	DefaultPhoneRegion    string
	MaxBookingsPerDayScan int

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment (and a .env file when present), validates the result
// and exits the process on invalid configuration.
func Load(serviceName string) *Config {
	dotEnvErr := loadDotEnv()

	cfg := FromEnv(serviceName)
	if dotEnvErr != nil {
		cfg.Log.Debug("No .env file loaded", "error", dotEnvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}

	if cfg.KafkaEnabled {
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		cfg.Kafka = kafkaCfg
	}

	cfg.LogConfiguration()
	return cfg
}

func loadDotEnv() error {
	if path := os.Getenv(EnvDotEnvFile); path != "" {
		return godotenv.Load(path)
	}
	return godotenv.Load()
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv(serviceName string) *Config {
	logLevel := getEnvStr(EnvLogLevel, DefaultLogLevel)

	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: logLevel,

		RateLimitRPS:   getEnvFloat(EnvRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst: getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockBackend:       getEnvStr(EnvLockBackend, DefaultLockBackend),
		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout:   getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		LockRetryInterval: getEnvDuration(EnvLockRetryInterval, DefaultLockRetryInterval),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		AuthProvider:            getEnvStr(EnvAuthProvider, DefaultAuthProvider),
		FirebaseCredentialsFile: getEnvStr(EnvFirebaseCredentialsFile, ""),
		FirebaseProjectID:       getEnvStr(EnvFirebaseProjectID, ""),
		JWTSecret:               getEnvStr(EnvJWTSecret, ""),
		JWTIssuer:               getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),

		KafkaEnabled:         getEnvBool(EnvKafkaEnabled, false),
		KafkaBookingTopic:    getEnvStr(EnvKafkaBookingTopic, DefaultKafkaBookingTopic),
		KafkaBookingDLQTopic: getEnvStr(EnvKafkaBookingDLQTopic, DefaultKafkaBookingDLQTopic),
		KafkaConsumerGroup:   getEnvStr(EnvKafkaConsumerGroup, DefaultKafkaConsumerGroup),

		PushEnabled: getEnvBool(EnvPushEnabled, false),

		OtelEnabled:       getEnvBool(EnvOtelEnabled, false),
		OtelEndpoint:      getEnvStr(EnvOtelEndpoint, DefaultOtelEndpoint),
		OtelSamplingRatio: getEnvFloat(EnvOtelSamplingRatio, DefaultOtelSamplingRatio),

		DefaultPhoneRegion:    getEnvStr(EnvDefaultPhoneRegion, DefaultPhoneRegion),
		MaxBookingsPerDayScan: getEnvNum(EnvMaxBookingsPerDayScan, DefaultMaxBookingsPerDayScan),

		Log: logger.New(logger.Config{
			Level:     logLevel,
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) SetFirebase(ctx context.Context) {
	cfg.Client.SetFirebase(ctx, cfg.Log, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRPS must be positive, got: %g", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	switch cfg.LockBackend {
	case LockBackendMongo, LockBackendMemory:
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr is required when LockBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [mongo, redis, memory], got: %s", cfg.LockBackend))
	}
	if cfg.LockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}
	if cfg.LockWaitTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockWaitTimeout must be positive, got: %s", cfg.LockWaitTimeout))
	}
	if cfg.LockRetryInterval <= 0 || cfg.LockRetryInterval > cfg.LockWaitTimeout {
		errors = append(errors, fmt.Sprintf("LockRetryInterval must be positive and not exceed LockWaitTimeout, got: %s", cfg.LockRetryInterval))
	}
	if cfg.LockTTL < cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("LockTTL (%s) must be >= RequestTimeout (%s)", cfg.LockTTL, cfg.RequestTimeout))
	}

	switch cfg.AuthProvider {
	case AuthProviderFirebase:
	case AuthProviderJWT:
		if len(cfg.JWTSecret) < 32 {
			errors = append(errors, "JWTSecret must be at least 32 characters when AuthProvider is jwt")
		}
	default:
		errors = append(errors, fmt.Sprintf("AuthProvider must be one of [firebase, jwt], got: %s", cfg.AuthProvider))
	}

	if cfg.KafkaEnabled && cfg.KafkaBookingTopic == "" {
		errors = append(errors, "KafkaBookingTopic cannot be empty when Kafka is enabled")
	}

	if cfg.OtelSamplingRatio < 0 || cfg.OtelSamplingRatio > 1 {
		errors = append(errors, fmt.Sprintf("OtelSamplingRatio must be between 0 and 1, got: %g", cfg.OtelSamplingRatio))
	}

	if len(cfg.DefaultPhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("DefaultPhoneRegion must be an ISO 3166-1 alpha-2 code, got: %s", cfg.DefaultPhoneRegion))
	}
	if cfg.MaxBookingsPerDayScan <= 0 {
		errors = append(errors, fmt.Sprintf("MaxBookingsPerDayScan must be positive, got: %d", cfg.MaxBookingsPerDayScan))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_backend", cfg.LockBackend,
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"auth_provider", cfg.AuthProvider,
		"firebase_project_id", cfg.FirebaseProjectID,
		"jwt_secret_set", cfg.JWTSecret != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_booking_topic", cfg.KafkaBookingTopic,
		"push_enabled", cfg.PushEnabled,
		"otel_enabled", cfg.OtelEnabled,
		"otel_endpoint", cfg.OtelEndpoint,
		"default_phone_region", cfg.DefaultPhoneRegion,
		"max_bookings_per_day_scan", cfg.MaxBookingsPerDayScan,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
