package main

import (
	"context"

	bookingshandler "renthub/internal/bookings/handler"
	"renthub/internal/bookings/repository"
	bookingsvc "renthub/internal/bookings/service"
	"renthub/internal/bookings/validator"
	"renthub/internal/notify"
	"renthub/internal/payments"
	remindershandler "renthub/internal/reminders/handler"
	remindersvc "renthub/internal/reminders/service"
	soshandler "renthub/internal/sos/handler"
	sossvc "renthub/internal/sos/service"
	"renthub/internal/vehicles"
	vehicleshandler "renthub/internal/vehicles/handler"
	"renthub/pkg/app"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	"renthub/pkg/kafka"
	kafka_config "renthub/pkg/kafka/config"
	"renthub/pkg/middleware"
	"renthub/pkg/sealer"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
)

const ServiceName = "bookings"

// stopperFunc adapts plain close functions to the application's Stopper.
type stopperFunc func() error

func (f stopperFunc) Stop() error { return f() }

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")

	producer, err := kafka.NewProducer(kafka_config.Load(), cfg.KafkaEventsTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	tokenSealer, err := sealer.New(cfg.SOSSealerKey)
	if err != nil {
		cfg.Log.Fatal("Invalid SOS sealer key", "error", err)
	}

	clk := clock.New()
	notifier := notify.NewKafkaNotifier(cfg, producer)

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewMongoSlotLockRepository(cfg)
	sequenceRepo := repository.NewMongoSequenceRepository(cfg)

	catalog := vehicles.NewMongoCatalog(cfg)
	reminderService := remindersvc.NewReminderService(bookingRepo, notifier, clk, cfg)

	bookingService := bookingsvc.NewBookingService(
		bookingRepo,
		lockRepo,
		bookingsvc.NewSequenceGenerator(sequenceRepo, clk, cfg),
		bookingsvc.NewConflictDetector(bookingRepo, clk, cfg),
		bookingsvc.NewRefundCalculator(cfg),
		validator.NewBookingValidator(cfg.Log),
		catalog,
		payments.NewHTTPGateway(cfg),
		notifier,
		reminderService,
		clk,
		cfg,
	)
	sosService := sossvc.NewSOSService(bookingService, tokenSealer, cfg)

	cfg.Log.Info("Booking engine initialized", "database", cfg.MongoDatabaseName)

	scheduler := startReminderSweep(cfg, reminderService)

	serverApp := app.NewApplication(cfg)
	serverApp.AddStopper(stopperFunc(scheduler.Shutdown))
	serverApp.AddStopper(stopperFunc(producer.Close))
	serverApp.AddStopper(stopperFunc(func() error {
		cfg.GracefulShutdown()
		return nil
	}))
	serverApp.SetApp(
		bookingshandler.NewHealthHandler(cfg.Client.Mongo, cfg.Client.Redis, cfg.Log),
		middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		vehicleshandler.NewVehicleHandler(catalog, cfg.Log),
		bookingshandler.NewAdminHandler(bookingService, cfg.Log),
		remindershandler.NewCronHandler(reminderService, cfg.Log),
		soshandler.NewSOSHandler(sosService, cfg.Log),
	)
	serverApp.Run()
}

// startReminderSweep runs the sweep in-process on a fixed interval. The
// admin cron endpoint stays available for external schedulers; the storage
// latch makes overlapping triggers harmless.
func startReminderSweep(cfg *config.Config, reminders remindersvc.ReminderService) gocron.Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		cfg.Log.Fatal("Failed to create reminder scheduler", "error", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.ReminderSweepEvery),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			defer cancel()
			if _, err := reminders.Sweep(ctx); err != nil {
				cfg.Log.Error("Scheduled reminder sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to schedule reminder sweep", "error", err)
	}

	scheduler.Start()
	cfg.Log.Info("Reminder sweep scheduled", "interval", cfg.ReminderSweepEvery)
	return scheduler
}
