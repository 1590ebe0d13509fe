package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "renthub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBrokers     = "localhost:9092"
	DefaultKafkaEventsTopic = "renthub.booking-events"
	DefaultKafkaDLQTopic    = "renthub.booking-events.dlq"

	DefaultPort = "8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Booking financials. The advance is 30% of the total; cancellations
	// after the free window refund 70% of the advance. Bookings persisted
	// before advance tracking existed carry a zero advance and fall back to
	// a fixed base of 100 currency units.
	DefaultAdvancePercent     = 0.30
	DefaultCancellationRefund = 0.70
	DefaultFallbackAdvance    = 100.0
	DefaultFreeCancelHours    = 2.0

	// Handover buffer applied to candidate windows during conflict checks.
	DefaultConflictBufferMin = 60

	DefaultSequenceMaxAttempts = 5
	DefaultSequenceBackoffBase = 100 * time.Millisecond
	DefaultSequenceBackoffCap  = 1000 * time.Millisecond

	DefaultSlotLockTTL = 10 * time.Second

	DefaultReminderSweepEvery  = 10 * time.Minute
	DefaultReminderSendWindow  = 1.0
	DefaultReminderSweepLimit  = 1.5
	DefaultReminderDirectLimit = 1.3

	DefaultSOSTokenTTL = 15 * time.Minute

	DefaultPaginationLimit = 100
)
