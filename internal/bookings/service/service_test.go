package service

import (
	"context"
	"io"
	"time"

	"renthub/pkg/config"
	mongotx "renthub/pkg/db/mongo"
	"renthub/pkg/logger"
	"renthub/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Shared test doubles for the bookings services.

func newTestConfig() *config.Config {
	return &config.Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,

		AdvancePercent:     0.30,
		CancellationRefund: 0.70,
		FallbackAdvance:    100,
		FreeCancelHours:    2,

		ConflictBufferMin: 60,

		SequenceMaxAttempts: 5,
		SequenceBackoffBase: time.Millisecond,
		SequenceBackoffCap:  4 * time.Millisecond,

		SlotLockTTL: 10 * time.Second,

		ReminderSendWindow:  1.0,
		ReminderSweepLimit:  1.5,
		ReminderDirectLimit: 1.3,

		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatJSON,
			Output:  io.Discard,
			Service: "test",
		}),
	}
}

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findByPublicIDFunc  func(ctx context.Context, publicID string) (*model.Booking, error)
	findActiveFunc      func(ctx context.Context, vehicleType, vehicleID, date string) ([]*model.Booking, error)
	findAllFunc         func(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, error)
	countFunc           func(ctx context.Context, status string) (int64, error)
	confirmFunc         func(ctx context.Context, id string, at time.Time) error
	rejectFunc          func(ctx context.Context, id string, reason string, refund *model.Refund) error
	cancelFunc          func(ctx context.Context, id string, fromStatus string, refund *model.Refund) error
	completeRefundFunc  func(ctx context.Context, id string, externalRef string) error
	setRefundDetails    func(ctx context.Context, id string, details string) error
	findUnremindedFunc  func(ctx context.Context, dates []string) ([]*model.Booking, error)
	markRemindedFunc    func(ctx context.Context, id string, at time.Time) error
	clearRemindedFunc   func(ctx context.Context, id string) error
	executeTransactFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "64a000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindByPublicID(ctx context.Context, publicID string) (*model.Booking, error) {
	if m.findByPublicIDFunc != nil {
		return m.findByPublicIDFunc(ctx, publicID)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindActiveByVehicleAndDate(ctx context.Context, vehicleType, vehicleID, date string) ([]*model.Booking, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, vehicleType, vehicleID, date)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, status, limit, offset)
	}
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, status string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockBookingRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, id, at)
	}
	return nil
}

func (m *mockBookingRepository) Reject(ctx context.Context, id string, reason string, refund *model.Refund) error {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, id, reason, refund)
	}
	return nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id string, fromStatus string, refund *model.Refund) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, fromStatus, refund)
	}
	return nil
}

func (m *mockBookingRepository) CompleteRefund(ctx context.Context, id string, externalRef string) error {
	if m.completeRefundFunc != nil {
		return m.completeRefundFunc(ctx, id, externalRef)
	}
	return nil
}

func (m *mockBookingRepository) SetRefundDetails(ctx context.Context, id string, details string) error {
	if m.setRefundDetails != nil {
		return m.setRefundDetails(ctx, id, details)
	}
	return nil
}

func (m *mockBookingRepository) FindConfirmedUnreminded(ctx context.Context, dates []string) ([]*model.Booking, error) {
	if m.findUnremindedFunc != nil {
		return m.findUnremindedFunc(ctx, dates)
	}
	return nil, nil
}

func (m *mockBookingRepository) MarkReminded(ctx context.Context, id string, at time.Time) error {
	if m.markRemindedFunc != nil {
		return m.markRemindedFunc(ctx, id, at)
	}
	return nil
}

func (m *mockBookingRepository) ClearReminded(ctx context.Context, id string) error {
	if m.clearRemindedFunc != nil {
		return m.clearRemindedFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactFunc != nil {
		return m.executeTransactFunc(ctx, fn)
	}
	return fn(mongo.SessionContext(nil))
}

type mockSlotLockRepository struct {
	acquireFunc func(ctx context.Context, lock *model.SlotLock) error
	releaseFunc func(ctx context.Context, lockID string) error
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, lock *model.SlotLock) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lock)
	}
	return nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, lockID string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, lockID)
	}
	return nil
}

type mockSequenceRepository struct {
	incrementFunc func(ctx context.Context, counterID string) (int64, error)
	getFunc       func(ctx context.Context, counterID string) (int64, error)
	casFunc       func(ctx context.Context, counterID string, expected, next int64) error
}

func (m *mockSequenceRepository) IncrementAndGet(ctx context.Context, counterID string) (int64, error) {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, counterID)
	}
	return 1, nil
}

func (m *mockSequenceRepository) Get(ctx context.Context, counterID string) (int64, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, counterID)
	}
	return 0, nil
}

func (m *mockSequenceRepository) CompareAndSet(ctx context.Context, counterID string, expected, next int64) error {
	if m.casFunc != nil {
		return m.casFunc(ctx, counterID, expected, next)
	}
	return nil
}

type mockCatalog struct {
	getFunc          func(ctx context.Context, vehicleType, vehicleID string) (*model.Vehicle, error)
	setAvailableFunc func(ctx context.Context, vehicleType, vehicleID string, available bool) error
}

func (m *mockCatalog) Get(ctx context.Context, vehicleType, vehicleID string) (*model.Vehicle, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, vehicleType, vehicleID)
	}
	return &model.Vehicle{ID: vehicleID, Type: vehicleType, Name: "Test Vehicle", PricePerHour: 100, Available: true}, nil
}

func (m *mockCatalog) List(ctx context.Context, vehicleType string) ([]*model.Vehicle, error) {
	return nil, nil
}

func (m *mockCatalog) SetAvailable(ctx context.Context, vehicleType, vehicleID string, available bool) error {
	if m.setAvailableFunc != nil {
		return m.setAvailableFunc(ctx, vehicleType, vehicleID, available)
	}
	return nil
}

type mockGateway struct {
	requestRefundFunc func(ctx context.Context, publicID, paymentRef string, amount float64, reason string) (string, error)
}

func (m *mockGateway) RequestRefund(ctx context.Context, publicID, paymentRef string, amount float64, reason string) (string, error) {
	if m.requestRefundFunc != nil {
		return m.requestRefundFunc(ctx, publicID, paymentRef, amount, reason)
	}
	return "refund-ref-1", nil
}

type mockNotifier struct {
	confirmedFunc func(ctx context.Context, booking *model.Booking) error
	reminderFunc  func(ctx context.Context, booking *model.Booking) error
	refundFunc    func(ctx context.Context, booking *model.Booking) error
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) error {
	if m.confirmedFunc != nil {
		return m.confirmedFunc(ctx, booking)
	}
	return nil
}

func (m *mockNotifier) BookingReminder(ctx context.Context, booking *model.Booking) error {
	if m.reminderFunc != nil {
		return m.reminderFunc(ctx, booking)
	}
	return nil
}

func (m *mockNotifier) RefundCompleted(ctx context.Context, booking *model.Booking) error {
	if m.refundFunc != nil {
		return m.refundFunc(ctx, booking)
	}
	return nil
}

type mockReminderScheduler struct {
	immediateFunc func(ctx context.Context, booking *model.Booking)
}

func (m *mockReminderScheduler) ImmediateCheck(ctx context.Context, booking *model.Booking) {
	if m.immediateFunc != nil {
		m.immediateFunc(ctx, booking)
	}
}
