package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/internal/bookings/repository"
	"renthub/internal/notify"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"
)

// ReminderService fires the one-time pickup reminder for confirmed bookings.
// Two triggers share the send path: the periodic sweep and the immediate
// check right after a confirmation. The reminder_sent latch in storage keeps
// the send at-most-once across both triggers and across instances.
type ReminderService interface {
	Sweep(ctx context.Context) (*SweepResult, error)
	ImmediateCheck(ctx context.Context, booking *model.Booking)
}

type SweepResult struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type reminderService struct {
	repo     repository.BookingRepository
	notifier notify.Notifier
	clk      clock.Clock
	cfg      *config.Config
}

func NewReminderService(repo repository.BookingRepository, notifier notify.Notifier, clk clock.Clock, cfg *config.Config) ReminderService {
	return &reminderService{
		repo:     repo,
		notifier: notifier,
		clk:      clk,
		cfg:      cfg,
	}
}

// Sweep scans confirmed, unreminded bookings and sends reminders for those
// inside the send window. Bookings already past their start, or further out
// than the sweep limit, are left untouched; a later sweep picks up the ones
// in between.
func (s *reminderService) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.clk.Now().In(clock.IST)

	// The sweep limit can reach past midnight, so scan two calendar dates.
	dates := []string{
		now.Format("2006-01-02"),
		now.AddDate(0, 0, 1).Format("2006-01-02"),
	}

	candidates, err := s.repo.FindConfirmedUnreminded(ctx, dates)
	if err != nil {
		return nil, apperrors.Internal("Failed to scan bookings for reminders", err)
	}

	result := &SweepResult{Scanned: len(candidates)}
	for _, b := range candidates {
		hours, err := s.hoursUntilPickup(b, now)
		if err != nil {
			s.cfg.Log.Warn("Skipping booking with invalid window", "public_id", b.PublicID, "error", err)
			result.Skipped++
			continue
		}

		if hours < 0 || hours > s.cfg.ReminderSweepLimit {
			result.Skipped++
			continue
		}
		if hours > s.cfg.ReminderSendWindow {
			// Too early for this sweep; the next one gets it.
			result.Skipped++
			continue
		}

		if s.send(ctx, b) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	s.cfg.Log.Info("Reminder sweep completed",
		"scanned", result.Scanned,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// ImmediateCheck runs right after a confirmation. Its early-skip threshold is
// wider than the sweep's send window so a booking confirmed just past the
// one-hour boundary is reminded now instead of never.
func (s *reminderService) ImmediateCheck(ctx context.Context, booking *model.Booking) {
	if booking.ReminderSent {
		return
	}

	now := s.clk.Now().In(clock.IST)
	hours, err := s.hoursUntilPickup(booking, now)
	if err != nil {
		s.cfg.Log.Warn("Immediate reminder check failed", "public_id", booking.PublicID, "error", err)
		return
	}

	if hours < 0 || hours > s.cfg.ReminderDirectLimit {
		return
	}

	s.send(ctx, booking)
}

func (s *reminderService) hoursUntilPickup(b *model.Booking, now time.Time) (float64, error) {
	start, err := b.Window.Start(clock.IST)
	if err != nil {
		return 0, err
	}
	return start.Sub(now).Hours(), nil
}

// send claims the latch first, then publishes. Losing the claim means
// another trigger already sent; a failed publish releases the latch so the
// next sweep retries.
func (s *reminderService) send(ctx context.Context, b *model.Booking) bool {
	now := s.clk.Now().UTC()
	if err := s.repo.MarkReminded(ctx, b.ID, now); err != nil {
		if errors.Is(err, bookingserrors.ErrAlreadyReminded) {
			return false
		}
		s.cfg.Log.Error("Failed to claim reminder latch", "public_id", b.PublicID, "error", err)
		return false
	}

	if err := s.notifier.BookingReminder(ctx, b); err != nil {
		s.cfg.Log.Error("Failed to send reminder, releasing latch",
			"public_id", b.PublicID,
			"error", err,
		)
		if clearErr := s.repo.ClearReminded(ctx, b.ID); clearErr != nil {
			s.cfg.Log.Error("Failed to release reminder latch", "public_id", b.PublicID, "error", clearErr)
		}
		return false
	}

	b.ReminderSent = true
	b.RemindedAt = &now
	s.cfg.Log.Info("Reminder sent", "public_id", b.PublicID)
	return true
}
