// Package notify publishes booking lifecycle events. Delivery to the
// customer (SMS, WhatsApp) is handled by downstream notification workers
// consuming the events topic.
package notify

import (
	"context"
	"time"

	"renthub/pkg/config"
	"renthub/pkg/kafka"
	"renthub/pkg/logger"
	"renthub/pkg/model"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingReminder  = "booking.reminder"
	EventRefundCompleted  = "booking.refund_completed"

	eventSource = "bookings-engine"
)

type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *model.Booking) error
	BookingReminder(ctx context.Context, booking *model.Booking) error
	RefundCompleted(ctx context.Context, booking *model.Booking) error
}

// BookingEvent is the payload shared by all lifecycle events.
type BookingEvent struct {
	PublicID     string           `json:"public_id"`
	Status       string           `json:"status"`
	Vehicle      model.VehicleRef `json:"vehicle"`
	Window       model.Window     `json:"window"`
	CustomerName string           `json:"customer_name"`
	Phone        string           `json:"phone"`
	Refund       *model.Refund    `json:"refund,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

type kafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(cfg *config.Config, producer *kafka.Producer) Notifier {
	return &kafkaNotifier{
		producer: producer,
		log:      cfg.Log,
	}
}

func (n *kafkaNotifier) BookingConfirmed(ctx context.Context, booking *model.Booking) error {
	return n.publish(ctx, EventBookingConfirmed, booking)
}

func (n *kafkaNotifier) BookingReminder(ctx context.Context, booking *model.Booking) error {
	return n.publish(ctx, EventBookingReminder, booking)
}

func (n *kafkaNotifier) RefundCompleted(ctx context.Context, booking *model.Booking) error {
	return n.publish(ctx, EventRefundCompleted, booking)
}

func (n *kafkaNotifier) publish(ctx context.Context, eventType string, booking *model.Booking) error {
	event := BookingEvent{
		PublicID:     booking.PublicID,
		Status:       booking.Status,
		Vehicle:      booking.Vehicle,
		Window:       booking.Window,
		CustomerName: booking.Customer.Name,
		Phone:        booking.Customer.Phone,
		Refund:       booking.Refund,
		OccurredAt:   time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.PublicID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(eventSource).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		n.log.Error("Failed to publish booking event",
			"event_type", eventType,
			"booking_public_id", booking.PublicID,
			"error", err,
		)
		return err
	}

	n.log.Debug("Booking event published",
		"event_type", eventType,
		"booking_public_id", booking.PublicID,
	)
	return nil
}
