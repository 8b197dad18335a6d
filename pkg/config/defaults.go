package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "masterbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 20

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLockBackend       = LockBackendMongo
	DefaultLockTTL           = 30 * time.Second
	DefaultLockWaitTimeout   = 3 * time.Second
	DefaultLockRetryInterval = 50 * time.Millisecond

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultAuthProvider = AuthProviderFirebase
	DefaultJWTIssuer    = "masterbook"

	DefaultKafkaBookingTopic    = "booking-events"
	DefaultKafkaBookingDLQTopic = "booking-events-dlq"
	DefaultKafkaConsumerGroup   = "masterbook-notifier"

	DefaultOtelEndpoint      = "localhost:4317"
	DefaultOtelSamplingRatio = 1.0

	DefaultPhoneRegion           = "IL"
	DefaultMaxBookingsPerDayScan = 1440

	DefaultPaginationLimit = 100
)

const (
	LockBackendMongo  = "mongo"
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"

	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)
