package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/internal/bookings/repository"
	"renthub/internal/bookings/validator"
	"renthub/internal/notify"
	"renthub/internal/payments"
	"renthub/internal/vehicles"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"
	"renthub/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReminderScheduler is satisfied by the reminders service. Confirmations that
// land inside the reminder window trigger an immediate check instead of
// waiting for the next sweep.
type ReminderScheduler interface {
	ImmediateCheck(ctx context.Context, booking *model.Booking)
}

type BookingService interface {
	CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) error
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	Reject(ctx context.Context, id string, reason string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	CompleteRefund(ctx context.Context, id string, externalRef string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	sequence  *SequenceGenerator
	conflicts *ConflictDetector
	refunds   *RefundCalculator
	validator *validator.BookingValidator
	catalog   vehicles.Catalog
	gateway   payments.Gateway
	notifier  notify.Notifier
	reminders ReminderScheduler
	clk       clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	sequence *SequenceGenerator,
	conflicts *ConflictDetector,
	refunds *RefundCalculator,
	validator *validator.BookingValidator,
	catalog vehicles.Catalog,
	gateway payments.Gateway,
	notifier notify.Notifier,
	reminders ReminderScheduler,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		sequence:  sequence,
		conflicts: conflicts,
		refunds:   refunds,
		validator: validator,
		catalog:   catalog,
		gateway:   gateway,
		notifier:  notifier,
		reminders: reminders,
		clk:       clk,
		cfg:       cfg,
	}
}

func (s *bookingService) CheckAvailability(ctx context.Context, req *model.AvailabilityRequest) error {
	if err := s.validator.ValidateAvailability(req); err != nil {
		return apperrors.Validation("Invalid availability request", map[string]any{"error": err.Error()})
	}
	return s.conflicts.Check(ctx, req.Vehicle, req.Window, "")
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	vehicle, err := s.catalog.Get(ctx, req.Vehicle.Type, req.Vehicle.ID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Available {
		return nil, apperrors.Conflict(fmt.Sprintf("Vehicle %s is not available for booking", vehicle.ID))
	}

	booking := s.buildBooking(req, vehicle)

	// Advisory lock on the slot coordinates so two requests for the same
	// slot serialize before the conflict check.
	lockID, err := s.acquireSlotLock(ctx, req.Vehicle, req.Window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.conflicts.Check(ctx, req.Vehicle, req.Window, ""); err != nil {
			return err
		}

		publicID, err := s.sequence.Next(ctx)
		if err != nil {
			return err
		}
		booking.PublicID = publicID

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"public_id", booking.PublicID,
		"vehicle_type", booking.Vehicle.Type,
		"vehicle_id", booking.Vehicle.ID,
		"date", booking.Window.Date,
		"status", booking.Status,
	)

	if booking.Status == model.StatusConfirmed {
		s.afterConfirmation(ctx, booking)
	}

	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.project(booking)
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for _, b := range bookings {
		s.project(b)
	}
	return bookings, count, nil
}

func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusPending {
		return nil, apperrors.InvalidTransition(s.effective(booking), model.StatusConfirmed)
	}

	// The slot may have been taken by a direct booking while this one sat
	// pending.
	if err := s.conflicts.Check(ctx, booking.Vehicle, booking.Window, booking.ID); err != nil {
		return nil, err
	}

	now := s.clk.Now().UTC()
	if err := s.repo.Confirm(ctx, booking.ID, now); err != nil {
		return nil, s.mapTransitionError(ctx, err, booking.ID, model.StatusConfirmed)
	}
	booking.Status = model.StatusConfirmed
	booking.ConfirmedAt = &now

	s.cfg.Log.Info("Booking confirmed", "public_id", booking.PublicID)
	s.afterConfirmation(ctx, booking)

	return booking, nil
}

func (s *bookingService) Reject(ctx context.Context, id string, reason string) (*model.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.InvalidInput("Rejection reason is required")
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusPending {
		return nil, apperrors.InvalidTransition(s.effective(booking), model.StatusRejected)
	}

	refund := s.refunds.ForRejection(booking.Financial.AdvancePayment)
	if err := s.repo.Reject(ctx, booking.ID, reason, refund); err != nil {
		return nil, s.mapTransitionError(ctx, err, booking.ID, model.StatusRejected)
	}
	booking.Status = model.StatusRejected
	booking.RejectReason = reason
	booking.Refund = refund

	s.cfg.Log.Info("Booking rejected",
		"public_id", booking.PublicID,
		"reason", reason,
		"refund_amount", refund.Amount,
	)

	s.releaseVehicle(ctx, booking)
	s.requestRefund(ctx, booking, "booking rejected: "+reason)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if effective := s.effective(booking); effective != model.StatusConfirmed {
		return nil, apperrors.InvalidTransition(effective, model.StatusCancelled)
	}

	// The refund tier is clocked from confirmation, not from pickup.
	origin := booking.CreatedAt
	if booking.ConfirmedAt != nil {
		origin = *booking.ConfirmedAt
	}
	hoursSinceConfirmation := s.clk.Now().Sub(origin).Hours()

	refund := s.refunds.ForCancellation(booking.Financial.AdvancePayment, hoursSinceConfirmation)
	if err := s.repo.Cancel(ctx, booking.ID, booking.Status, refund); err != nil {
		return nil, s.mapTransitionError(ctx, err, booking.ID, model.StatusCancelled)
	}
	booking.Status = model.StatusCancelled
	booking.Refund = refund

	s.cfg.Log.Info("Booking cancelled",
		"public_id", booking.PublicID,
		"hours_since_confirmation", math.Round(hoursSinceConfirmation*100)/100,
		"refund_amount", refund.Amount,
		"deduction_amount", refund.DeductionAmount,
	)

	s.releaseVehicle(ctx, booking)
	s.requestRefund(ctx, booking, "booking cancelled by customer")
	return booking, nil
}

func (s *bookingService) CompleteRefund(ctx context.Context, id string, externalRef string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Refund == nil || booking.Refund.Status != model.RefundProcessing {
		return nil, apperrors.Conflict("Booking has no refund in processing state")
	}

	if err := s.repo.CompleteRefund(ctx, booking.ID, externalRef); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return nil, apperrors.Conflict("Refund was already completed")
		}
		return nil, apperrors.Internal("Failed to complete refund", err)
	}
	booking.Refund.Status = model.RefundCompleted
	booking.Refund.ExternalRef = externalRef

	s.cfg.Log.Info("Refund completed",
		"public_id", booking.PublicID,
		"amount", booking.Refund.Amount,
		"external_ref", externalRef,
	)

	if err := s.notifier.RefundCompleted(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish refund completed event", "public_id", booking.PublicID, "error", err)
	}

	return booking, nil
}

// --- Helpers ---

func (s *bookingService) buildBooking(req *model.BookingRequest, vehicle *model.Vehicle) *model.Booking {
	total := vehicle.PricePerHour * float64(req.Window.DurationHours)
	advance := roundHalfUp(total * s.cfg.AdvancePercent)

	booking := &model.Booking{
		Vehicle:  req.Vehicle,
		Window:   req.Window,
		Customer: req.Customer,
		Financial: model.Financial{
			TotalAmount:     total,
			AdvancePayment:  advance,
			RemainingAmount: total - advance,
		},
	}

	if req.Flow == model.FlowDirect {
		now := s.clk.Now().UTC()
		booking.Status = model.StatusConfirmed
		booking.ConfirmedAt = &now
		booking.PaymentRef = req.PaymentRef
	} else {
		booking.Status = model.StatusPending
	}

	return booking
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.Customer.Name = sanitizer.NormalizeName(req.Customer.Name)
	req.Customer.Email = sanitizer.NormalizeEmail(req.Customer.Email)
	if phone := sanitizer.NormalizePhone(req.Customer.Phone); phone != "" {
		req.Customer.Phone = phone
	}
}

// find resolves either a Mongo hex id or an RH public reference.
func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var booking *model.Booking
	var err error
	if strings.HasPrefix(id, "RH") {
		booking, err = s.repo.FindByPublicID(ctx, id)
	} else {
		booking, err = s.repo.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) effective(b *model.Booking) string {
	return b.EffectiveStatus(s.clk.Now(), clock.IST)
}

// project rewrites the stored status with the derived one for responses.
func (s *bookingService) project(b *model.Booking) {
	b.Status = s.effective(b)
}

// mapTransitionError re-reads the booking after a failed compare-and-set so
// the error names the status that actually won the race.
func (s *bookingService) mapTransitionError(ctx context.Context, err error, id string, target string) error {
	if !errors.Is(err, bookingserrors.ErrStatusChanged) {
		return apperrors.Internal("Failed to update booking status", err)
	}

	current, findErr := s.repo.FindByID(ctx, id)
	if findErr != nil {
		return apperrors.InvalidTransition("unknown", target)
	}
	return apperrors.InvalidTransition(s.effective(current), target)
}

func (s *bookingService) afterConfirmation(ctx context.Context, booking *model.Booking) {
	if err := s.notifier.BookingConfirmed(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish confirmation event", "public_id", booking.PublicID, "error", err)
	}
	if s.reminders != nil {
		s.reminders.ImmediateCheck(ctx, booking)
	}
}

// releaseVehicle marks the vehicle bookable again after a terminal
// transition. Failure is logged only; the booking state already changed.
func (s *bookingService) releaseVehicle(ctx context.Context, booking *model.Booking) {
	if err := s.catalog.SetAvailable(ctx, booking.Vehicle.Type, booking.Vehicle.ID, true); err != nil {
		s.cfg.Log.Warn("Failed to release vehicle",
			"public_id", booking.PublicID,
			"vehicle_id", booking.Vehicle.ID,
			"error", err,
		)
	}
}

// requestRefund fires the gateway call after the state transition has been
// persisted. It only runs when a payment reference exists, and gateway
// failure is deliberately non-fatal: the booking stays cancelled/rejected
// with the refund in processing, and the ops runbook covers re-driving stuck
// refunds.
func (s *bookingService) requestRefund(ctx context.Context, booking *model.Booking, reason string) {
	if booking.Refund == nil || booking.PaymentRef == "" {
		return
	}

	refundRef, err := s.gateway.RequestRefund(ctx, booking.PublicID, booking.PaymentRef, booking.Refund.Amount, reason)
	if err != nil {
		s.cfg.Log.Error("Refund request failed; refund stays in processing",
			"public_id", booking.PublicID,
			"amount", booking.Refund.Amount,
			"error", err,
		)
		return
	}

	booking.Refund.Details = "gateway ref " + refundRef
	if err := s.repo.SetRefundDetails(ctx, booking.ID, booking.Refund.Details); err != nil {
		s.cfg.Log.Warn("Failed to record gateway reference on refund",
			"public_id", booking.PublicID,
			"gateway_ref", refundRef,
			"error", err,
		)
	}
	s.cfg.Log.Info("Refund requested",
		"public_id", booking.PublicID,
		"amount", booking.Refund.Amount,
		"gateway_ref", refundRef,
	)
}

func (s *bookingService) acquireSlotLock(ctx context.Context, vehicle model.VehicleRef, window model.Window) (string, error) {
	startMin, err := window.StartMinutes()
	if err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}

	lockID := fmt.Sprintf("%s_%s_%s_%d", vehicle.Type, vehicle.ID, window.Date, startMin)
	lock := &model.SlotLock{ID: lockID}

	if err := s.lockRepo.Acquire(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotLocked) {
			return "", apperrors.Conflict("This slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}
