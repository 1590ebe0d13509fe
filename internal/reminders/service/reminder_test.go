package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	mongotx "renthub/pkg/db/mongo"
	"renthub/pkg/logger"
	"renthub/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sweep math below assumes 10:00 IST on 2026-03-14.
var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, clock.IST)

func newTestConfig() *config.Config {
	return &config.Config{
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

func newTestReminderService(repo *mockBookingRepository, notifier *mockNotifier) ReminderService {
	return NewReminderService(repo, notifier, clock.Fixed(testNow), newTestConfig())
}

func confirmedAt(start string) *model.Booking {
	return &model.Booking{
		ID:       "64a000000000000000000001",
		PublicID: "RH260314-001",
		Status:   model.StatusConfirmed,
		Window:   model.Window{Date: "2026-03-14", StartTime: start, DurationHours: 2},
		Customer: model.Customer{Name: "Ravi Kumar", Phone: "+919876543210"},
	}
}

func TestSweepSendsInsideWindow(t *testing.T) {
	repo := &mockBookingRepository{}
	repo.findUnremindedFunc = func(ctx context.Context, dates []string) ([]*model.Booking, error) {
		return []*model.Booking{confirmedAt("10:45")}, nil
	}
	notifier := &mockNotifier{}
	var sent int
	notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
		sent++
		return nil
	}
	svc := newTestReminderService(repo, notifier)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Sent != 1 || sent != 1 {
		t.Errorf("Sent = %d (published %d), want 1", result.Sent, sent)
	}
}

func TestSweepSkipsOutsideWindow(t *testing.T) {
	tests := []struct {
		name  string
		start string
	}{
		{"pickup already passed", "09:30"},
		{"beyond sweep limit", "12:00"},
		{"between send window and sweep limit waits", "11:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookingRepository{}
			repo.findUnremindedFunc = func(ctx context.Context, dates []string) ([]*model.Booking, error) {
				return []*model.Booking{confirmedAt(tt.start)}, nil
			}
			notifier := &mockNotifier{}
			var sent int
			notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
				sent++
				return nil
			}
			svc := newTestReminderService(repo, notifier)

			result, err := svc.Sweep(context.Background())
			if err != nil {
				t.Fatalf("Sweep() error = %v", err)
			}

			if result.Skipped != 1 || sent != 0 {
				t.Errorf("Skipped = %d, published = %d, want 1 and 0", result.Skipped, sent)
			}
		})
	}
}

func TestSweepScansTodayAndTomorrow(t *testing.T) {
	repo := &mockBookingRepository{}
	var scanned []string
	repo.findUnremindedFunc = func(ctx context.Context, dates []string) ([]*model.Booking, error) {
		scanned = dates
		return nil, nil
	}
	svc := newTestReminderService(repo, &mockNotifier{})

	if _, err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(scanned) != 2 || scanned[0] != "2026-03-14" || scanned[1] != "2026-03-15" {
		t.Errorf("scanned dates = %v, want [2026-03-14 2026-03-15]", scanned)
	}
}

func TestSweepLostLatchRaceDoesNotPublish(t *testing.T) {
	repo := &mockBookingRepository{}
	repo.findUnremindedFunc = func(ctx context.Context, dates []string) ([]*model.Booking, error) {
		return []*model.Booking{confirmedAt("10:45")}, nil
	}
	repo.markRemindedFunc = func(ctx context.Context, id string, at time.Time) error {
		return bookingserrors.ErrAlreadyReminded
	}
	notifier := &mockNotifier{}
	var sent int
	notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
		sent++
		return nil
	}
	svc := newTestReminderService(repo, notifier)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if sent != 0 {
		t.Errorf("published %d reminders after losing the latch, want 0", sent)
	}
	if result.Sent != 0 {
		t.Errorf("Sent = %d, want 0", result.Sent)
	}
}

func TestSweepPublishFailureReleasesLatch(t *testing.T) {
	repo := &mockBookingRepository{}
	repo.findUnremindedFunc = func(ctx context.Context, dates []string) ([]*model.Booking, error) {
		return []*model.Booking{confirmedAt("10:45")}, nil
	}
	var cleared string
	repo.clearRemindedFunc = func(ctx context.Context, id string) error {
		cleared = id
		return nil
	}
	notifier := &mockNotifier{}
	notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
		return errors.New("broker unreachable")
	}
	svc := newTestReminderService(repo, notifier)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if cleared != "64a000000000000000000001" {
		t.Errorf("latch not released, ClearReminded got %q", cleared)
	}
}

func TestImmediateCheckSendsInsideDirectLimit(t *testing.T) {
	repo := &mockBookingRepository{}
	notifier := &mockNotifier{}
	var sent int
	notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
		sent++
		return nil
	}
	svc := newTestReminderService(repo, notifier)

	// 1.2 hours out: past the sweep's send window, inside the direct limit.
	svc.ImmediateCheck(context.Background(), confirmedAt("11:12"))

	if sent != 1 {
		t.Errorf("published %d reminders, want 1", sent)
	}
}

func TestImmediateCheckSkips(t *testing.T) {
	tests := []struct {
		name    string
		booking *model.Booking
	}{
		{"beyond direct limit", confirmedAt("11:24")},
		{"pickup already passed", confirmedAt("09:30")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			var sent int
			notifier.reminderFunc = func(ctx context.Context, booking *model.Booking) error {
				sent++
				return nil
			}
			svc := newTestReminderService(&mockBookingRepository{}, notifier)

			svc.ImmediateCheck(context.Background(), tt.booking)

			if sent != 0 {
				t.Errorf("published %d reminders, want 0", sent)
			}
		})
	}
}

func TestImmediateCheckHonoursExistingLatch(t *testing.T) {
	booking := confirmedAt("10:45")
	booking.ReminderSent = true

	notifier := &mockNotifier{}
	var sent int
	notifier.reminderFunc = func(ctx context.Context, b *model.Booking) error {
		sent++
		return nil
	}
	var claims int
	repo := &mockBookingRepository{}
	repo.markRemindedFunc = func(ctx context.Context, id string, at time.Time) error {
		claims++
		return nil
	}
	svc := newTestReminderService(repo, notifier)

	svc.ImmediateCheck(context.Background(), booking)

	if sent != 0 || claims != 0 {
		t.Errorf("sent = %d, latch claims = %d, want 0 and 0", sent, claims)
	}
}

type mockBookingRepository struct {
	findUnremindedFunc func(ctx context.Context, dates []string) ([]*model.Booking, error)
	markRemindedFunc   func(ctx context.Context, id string, at time.Time) error
	clearRemindedFunc  func(ctx context.Context, id string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindByPublicID(ctx context.Context, publicID string) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindActiveByVehicleAndDate(ctx context.Context, vehicleType, vehicleID, date string) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, status string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (m *mockBookingRepository) Reject(ctx context.Context, id string, reason string, refund *model.Refund) error {
	return nil
}

func (m *mockBookingRepository) Cancel(ctx context.Context, id string, fromStatus string, refund *model.Refund) error {
	return nil
}

func (m *mockBookingRepository) CompleteRefund(ctx context.Context, id string, externalRef string) error {
	return nil
}

func (m *mockBookingRepository) SetRefundDetails(ctx context.Context, id string, details string) error {
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
	return fn(mongo.SessionContext(nil))
}

type mockNotifier struct {
	reminderFunc func(ctx context.Context, booking *model.Booking) error
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockNotifier) BookingReminder(ctx context.Context, booking *model.Booking) error {
	if m.reminderFunc != nil {
		return m.reminderFunc(ctx, booking)
	}
	return nil
}

func (m *mockNotifier) RefundCompleted(ctx context.Context, booking *model.Booking) error {
	return nil
}
