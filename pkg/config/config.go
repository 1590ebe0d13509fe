package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"renthub/pkg/client"
	"renthub/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string

	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaDLQTopic    string

	Port string

	AdminSecret string

	PaymentGatewayURL string
	PaymentGatewayKey string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	AdvancePercent     float64
	CancellationRefund float64
	FallbackAdvance    float64
	FreeCancelHours    float64

	ConflictBufferMin int

	SequenceMaxAttempts int
	SequenceBackoffBase time.Duration
	SequenceBackoffCap  time.Duration

	SlotLockTTL time.Duration

	ReminderSweepEvery  time.Duration
	ReminderSendWindow  float64
	ReminderSweepLimit  float64
	ReminderDirectLimit float64

	SOSTokenTTL  time.Duration
	SOSSealerKey string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),

		KafkaBrokers:     strings.Split(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers), ","),
		KafkaEventsTopic: getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		KafkaDLQTopic:    getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),

		Port: getEnvStr(EnvPort, DefaultPort),

		AdminSecret: getEnvStr(EnvAdminSecret, ""),

		PaymentGatewayURL: getEnvStr(EnvPaymentGatewayURL, ""),
		PaymentGatewayKey: getEnvStr(EnvPaymentGatewayKey, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		AdvancePercent:     getEnvFloat(EnvAdvancePercent, DefaultAdvancePercent),
		CancellationRefund: getEnvFloat(EnvCancellationRefund, DefaultCancellationRefund),
		FallbackAdvance:    getEnvFloat(EnvFallbackAdvance, DefaultFallbackAdvance),
		FreeCancelHours:    getEnvFloat(EnvFreeCancelHours, DefaultFreeCancelHours),

		ConflictBufferMin: getEnvNum(EnvConflictBufferMin, DefaultConflictBufferMin),

		SequenceMaxAttempts: getEnvNum(EnvSequenceMaxAttempts, DefaultSequenceMaxAttempts),
		SequenceBackoffBase: getEnvDuration(EnvSequenceBackoffBase, DefaultSequenceBackoffBase),
		SequenceBackoffCap:  getEnvDuration(EnvSequenceBackoffCap, DefaultSequenceBackoffCap),

		SlotLockTTL: getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),

		ReminderSweepEvery:  getEnvDuration(EnvReminderSweepEvery, DefaultReminderSweepEvery),
		ReminderSendWindow:  getEnvFloat(EnvReminderSendWindow, DefaultReminderSendWindow),
		ReminderSweepLimit:  getEnvFloat(EnvReminderSweepLimit, DefaultReminderSweepLimit),
		ReminderDirectLimit: getEnvFloat(EnvReminderDirectLimit, DefaultReminderDirectLimit),

		SOSTokenTTL:  getEnvDuration(EnvSOSTokenTTL, DefaultSOSTokenTTL),
		SOSSealerKey: getEnvStr(EnvSOSSealerKey, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.LevelInfo),
			Format:    logger.FormatJSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.New(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaBrokers[0] == "" {
		errs = append(errs, "KafkaBrokers cannot be empty")
	}
	if cfg.KafkaEventsTopic == "" {
		errs = append(errs, "KafkaEventsTopic cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"RateLimitWindow":     cfg.RateLimitWindow,
		"RequestTimeout":      cfg.RequestTimeout,
		"IdempotencyTTL":      cfg.IdempotencyTTL,
		"ReadTimeout":         cfg.ReadTimeout,
		"WriteTimeout":        cfg.WriteTimeout,
		"IdleTimeout":         cfg.IdleTimeout,
		"ShutdownTimeout":     cfg.ShutdownTimeout,
		"SlotLockTTL":         cfg.SlotLockTTL,
		"ReminderSweepEvery":  cfg.ReminderSweepEvery,
		"SOSTokenTTL":         cfg.SOSTokenTTL,
		"SequenceBackoffBase": cfg.SequenceBackoffBase,
		"SequenceBackoffCap":  cfg.SequenceBackoffCap,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.AdvancePercent <= 0 || cfg.AdvancePercent >= 1 {
		errs = append(errs, fmt.Sprintf("AdvancePercent must be in (0, 1), got: %v", cfg.AdvancePercent))
	}
	if cfg.CancellationRefund <= 0 || cfg.CancellationRefund > 1 {
		errs = append(errs, fmt.Sprintf("CancellationRefund must be in (0, 1], got: %v", cfg.CancellationRefund))
	}
	if cfg.FallbackAdvance <= 0 {
		errs = append(errs, fmt.Sprintf("FallbackAdvance must be positive, got: %v", cfg.FallbackAdvance))
	}
	if cfg.FreeCancelHours < 0 {
		errs = append(errs, fmt.Sprintf("FreeCancelHours cannot be negative, got: %v", cfg.FreeCancelHours))
	}
	if cfg.ConflictBufferMin < 0 {
		errs = append(errs, fmt.Sprintf("ConflictBufferMin cannot be negative, got: %d", cfg.ConflictBufferMin))
	}
	if cfg.SequenceMaxAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("SequenceMaxAttempts must be positive, got: %d", cfg.SequenceMaxAttempts))
	}
	if cfg.SequenceBackoffCap < cfg.SequenceBackoffBase {
		errs = append(errs, fmt.Sprintf("SequenceBackoffCap (%s) must be >= SequenceBackoffBase (%s)", cfg.SequenceBackoffCap, cfg.SequenceBackoffBase))
	}

	if cfg.ReminderSendWindow <= 0 {
		errs = append(errs, fmt.Sprintf("ReminderSendWindow must be positive, got: %v", cfg.ReminderSendWindow))
	}
	if cfg.ReminderSweepLimit < cfg.ReminderSendWindow {
		errs = append(errs, fmt.Sprintf("ReminderSweepLimit (%v) must be >= ReminderSendWindow (%v)", cfg.ReminderSweepLimit, cfg.ReminderSendWindow))
	}
	if cfg.ReminderDirectLimit < cfg.ReminderSendWindow {
		errs = append(errs, fmt.Sprintf("ReminderDirectLimit (%v) must be >= ReminderSendWindow (%v)", cfg.ReminderDirectLimit, cfg.ReminderSendWindow))
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_events_topic", cfg.KafkaEventsTopic,
		"port", cfg.Port,
		"admin_secret_set", cfg.AdminSecret != "",
		"payment_gateway_set", cfg.PaymentGatewayURL != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"advance_percent", cfg.AdvancePercent,
		"cancellation_refund", cfg.CancellationRefund,
		"free_cancel_hours", cfg.FreeCancelHours,
		"conflict_buffer_min", cfg.ConflictBufferMin,
		"sequence_max_attempts", cfg.SequenceMaxAttempts,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"reminder_sweep_every", cfg.ReminderSweepEvery,
		"reminder_send_window_h", cfg.ReminderSendWindow,
		"reminder_sweep_limit_h", cfg.ReminderSweepLimit,
		"reminder_direct_limit_h", cfg.ReminderDirectLimit,
		"sos_token_ttl", cfg.SOSTokenTTL,
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
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
