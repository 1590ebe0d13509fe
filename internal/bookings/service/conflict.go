package service

import (
	"context"
	"fmt"

	"renthub/internal/bookings/repository"
	"renthub/pkg/clock"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"
)

// ConflictDetector decides whether a requested window can coexist with the
// bookings already holding a vehicle. The turnaround buffer is applied to the
// candidate only; stored bookings are compared at their exact extent, so the
// gap between two bookings is one buffer, not two.
type ConflictDetector struct {
	repo repository.BookingRepository
	clk  clock.Clock
	cfg  *config.Config
}

func NewConflictDetector(repo repository.BookingRepository, clk clock.Clock, cfg *config.Config) *ConflictDetector {
	return &ConflictDetector{
		repo: repo,
		clk:  clk,
		cfg:  cfg,
	}
}

// Check returns nil when the window is bookable. It fails with PastBooking
// when the start has already elapsed and with SlotConflict when an active
// booking intrudes on the buffered window.
func (d *ConflictDetector) Check(ctx context.Context, vehicle model.VehicleRef, window model.Window, excludeID string) error {
	start, err := window.Start(clock.IST)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if start.Before(d.clk.Now().In(clock.IST)) {
		return apperrors.PastBooking("Booking start time is in the past")
	}

	candStart, err := window.StartMinutes()
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	candEnd := candStart + window.DurationHours*60

	bufferStart := candStart - d.cfg.ConflictBufferMin
	bufferEnd := candEnd + d.cfg.ConflictBufferMin

	existing, err := d.repo.FindActiveByVehicleAndDate(ctx, vehicle.Type, vehicle.ID, window.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == excludeID {
			continue
		}
		otherStart, err := b.Window.StartMinutes()
		if err != nil {
			// Unparseable stored window; treat the slot as held.
			return d.conflictError(b)
		}
		otherEnd := otherStart + b.Window.DurationHours*60

		// Half-open comparison: a booking ending exactly at bufferStart
		// does not conflict.
		if otherStart < bufferEnd && otherEnd > bufferStart {
			return d.conflictError(b)
		}
	}

	return nil
}

func (d *ConflictDetector) conflictError(b *model.Booking) error {
	return apperrors.SlotConflict(
		fmt.Sprintf("Slot conflicts with an existing booking (%s - %s, incl. %d min turnaround buffer)",
			b.Window.StartTime, b.Window.EndClock(), d.cfg.ConflictBufferMin),
		map[string]any{
			"conflicting_booking": b.PublicID,
			"date":                b.Window.Date,
			"start_time":          b.Window.StartTime,
			"end_time":            b.Window.EndClock(),
			"buffer_minutes":      d.cfg.ConflictBufferMin,
		},
	)
}
