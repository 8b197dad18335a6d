package config

const (
	EnvDotEnvFile = "DOTENV_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockBackend       = "LOCK_BACKEND"
	EnvLockTTL           = "LOCK_TTL"
	EnvLockWaitTimeout   = "LOCK_WAIT_TIMEOUT"
	EnvLockRetryInterval = "LOCK_RETRY_INTERVAL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvAuthProvider            = "AUTH_PROVIDER"
	EnvFirebaseCredentialsFile = "FIREBASE_CREDENTIALS_FILE"
	EnvFirebaseProjectID       = "FIREBASE_PROJECT_ID"
	EnvJWTSecret               = "JWT_SECRET"
	EnvJWTIssuer               = "JWT_ISSUER"

	EnvKafkaEnabled         = "KAFKA_ENABLED"
	EnvKafkaBookingTopic    = "KAFKA_BOOKING_TOPIC"
	EnvKafkaBookingDLQTopic = "KAFKA_BOOKING_DLQ_TOPIC"
	EnvKafkaConsumerGroup   = "KAFKA_CONSUMER_GROUP"

	EnvPushEnabled = "PUSH_ENABLED"

	EnvOtelEnabled       = "OTEL_ENABLED"
	EnvOtelEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOtelSamplingRatio = "OTEL_SAMPLING_RATIO"

	EnvDefaultPhoneRegion    = "DEFAULT_PHONE_REGION"
	EnvMaxBookingsPerDayScan = "MAX_BOOKINGS_PER_DAY_SCAN"
)
