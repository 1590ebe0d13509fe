package model

import (
	"fmt"
	"time"
)

// Booking statuses. Completed is never stored: it is a read-time projection
// of a confirmed booking whose window has ended.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Refund sub-states.
const (
	RefundNotApplicable = "not_applicable"
	RefundProcessing    = "processing"
	RefundCompleted     = "completed"
)

// Creation flows: direct payment confirms immediately, the admin-mediated
// flow starts at pending.
const (
	FlowDirect   = "direct"
	FlowApproval = "approval"
)

type VehicleRef struct {
	Type string `json:"vehicle_type" bson:"vehicle_type" validate:"required,oneof=bike car"`
	ID   string `json:"vehicle_id" bson:"vehicle_id" validate:"required"`
}

// Window is the reserved interval, stored as a calendar date plus a start
// clock time and a duration. Immutable after creation.
type Window struct {
	Date          string `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	DurationHours int    `json:"duration_hours" bson:"duration_hours" validate:"required,min=1,max=72"`
}

// StartMinutes returns the start as a minute offset from midnight.
func (w Window) StartMinutes() (int, error) {
	t, err := time.Parse("15:04", w.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", w.StartTime, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// EndMinutes returns the end as a minute offset from midnight. Windows that
// run past midnight keep accumulating past 1440.
func (w Window) EndMinutes() (int, error) {
	start, err := w.StartMinutes()
	if err != nil {
		return 0, err
	}
	return start + w.DurationHours*60, nil
}

// Start resolves the window start in the given location.
func (w Window) Start(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", w.Date+" "+w.StartTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid window %q %q: %w", w.Date, w.StartTime, err)
	}
	return t, nil
}

// End resolves the window end in the given location.
func (w Window) End(loc *time.Location) (time.Time, error) {
	start, err := w.Start(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(w.DurationHours) * time.Hour), nil
}

// EndClock formats the end as HH:MM for conflict messages, wrapping past
// midnight.
func (w Window) EndClock() string {
	end, err := w.EndMinutes()
	if err != nil {
		return ""
	}
	end %= 24 * 60
	return fmt.Sprintf("%02d:%02d", end/60, end%60)
}

type Financial struct {
	TotalAmount     float64 `json:"total_amount" bson:"total_amount"`
	AdvancePayment  float64 `json:"advance_payment" bson:"advance_payment"`
	RemainingAmount float64 `json:"remaining_amount" bson:"remaining_amount"`
}

type Refund struct {
	Amount          float64 `json:"amount" bson:"amount"`
	Status          string  `json:"status" bson:"status"`
	DeductionAmount float64 `json:"deduction_amount" bson:"deduction_amount"`
	ExternalRef     string  `json:"external_ref,omitempty" bson:"external_ref,omitempty"`
	Details         string  `json:"details,omitempty" bson:"details,omitempty"`
}

type Customer struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" bson:"phone" validate:"required,e164"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

type Booking struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty"`
	PublicID     string     `json:"public_id" bson:"public_id"`
	Vehicle      VehicleRef `json:"vehicle" bson:"vehicle"`
	Window       Window     `json:"window" bson:"window"`
	Customer     Customer   `json:"customer" bson:"customer"`
	Status       string     `json:"status" bson:"status"`
	Financial    Financial  `json:"financial" bson:"financial"`
	PaymentRef   string     `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	Refund       *Refund    `json:"refund,omitempty" bson:"refund,omitempty"`
	ReminderSent bool       `json:"reminder_sent" bson:"reminder_sent"`
	RemindedAt   *time.Time `json:"reminded_at,omitempty" bson:"reminded_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty" bson:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

// EffectiveStatus projects the derived completed state at read time. A
// confirmed booking whose window has ended is presented as completed without
// a persisted write.
func (b *Booking) EffectiveStatus(now time.Time, loc *time.Location) string {
	if b.Status != StatusConfirmed {
		return b.Status
	}
	end, err := b.Window.End(loc)
	if err != nil {
		return b.Status
	}
	if end.Before(now) {
		return StatusCompleted
	}
	return b.Status
}

// IsTerminal reports whether the stored status admits no further transition.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusRejected || b.Status == StatusCancelled
}

// IsActive reports whether the booking still holds its slot for conflict
// purposes.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// BookingRequest is the creation payload. The direct flow requires a payment
// reference because the advance has already been captured.
type BookingRequest struct {
	Vehicle    VehicleRef `json:"vehicle" validate:"required"`
	Window     Window     `json:"window" validate:"required"`
	Customer   Customer   `json:"customer" validate:"required"`
	Flow       string     `json:"flow" validate:"required,oneof=direct approval"`
	PaymentRef string     `json:"payment_ref" validate:"required_if=Flow direct"`
}

// AvailabilityRequest asks whether a window is free on a vehicle.
type AvailabilityRequest struct {
	Vehicle VehicleRef `json:"vehicle" validate:"required"`
	Window  Window     `json:"window" validate:"required"`
}
