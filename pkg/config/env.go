package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"

	EnvKafkaBrokers     = "KAFKA_BROKERS"
	EnvKafkaEventsTopic = "KAFKA_EVENTS_TOPIC"
	EnvKafkaDLQTopic    = "KAFKA_DLQ_TOPIC"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvAdminSecret = "ADMIN_SECRET"

	EnvPaymentGatewayURL = "PAYMENT_GATEWAY_URL"
	EnvPaymentGatewayKey = "PAYMENT_GATEWAY_KEY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAdvancePercent       = "ADVANCE_PERCENT"
	EnvConflictBufferMin    = "CONFLICT_BUFFER_MINUTES"
	EnvFreeCancelHours      = "FREE_CANCELLATION_HOURS"
	EnvCancellationRefund   = "CANCELLATION_REFUND_RATE"
	EnvFallbackAdvance      = "FALLBACK_ADVANCE_AMOUNT"
	EnvSequenceMaxAttempts  = "SEQUENCE_MAX_ATTEMPTS"
	EnvSequenceBackoffBase  = "SEQUENCE_BACKOFF_BASE"
	EnvSequenceBackoffCap   = "SEQUENCE_BACKOFF_CAP"
	EnvSlotLockTTL          = "SLOT_LOCK_TTL"
	EnvReminderSweepEvery   = "REMINDER_SWEEP_INTERVAL"
	EnvReminderSendWindow   = "REMINDER_SEND_WINDOW_HOURS"
	EnvReminderSweepLimit   = "REMINDER_SWEEP_EARLY_LIMIT_HOURS"
	EnvReminderDirectLimit  = "REMINDER_IMMEDIATE_EARLY_LIMIT_HOURS"
	EnvSOSTokenTTL          = "SOS_TOKEN_TTL"
	EnvSOSSealerKey         = "SOS_SEALER_KEY"
)
