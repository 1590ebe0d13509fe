package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/pkg/config"
	mongotx "renthub/pkg/db/mongo"
	"renthub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByPublicID(ctx context.Context, publicID string) (*model.Booking, error)
	FindActiveByVehicleAndDate(ctx context.Context, vehicleType string, vehicleID string, date string) ([]*model.Booking, error)
	FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, status string) (int64, error)
	Confirm(ctx context.Context, id string, at time.Time) error
	Reject(ctx context.Context, id string, reason string, refund *model.Refund) error
	Cancel(ctx context.Context, id string, fromStatus string, refund *model.Refund) error
	CompleteRefund(ctx context.Context, id string, externalRef string) error
	SetRefundDetails(ctx context.Context, id string, details string) error
	FindConfirmedUnreminded(ctx context.Context, dates []string) ([]*model.Booking, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
	ClearReminded(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel, as wrapping a SessionContext breaks
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByPublicID(ctx context.Context, publicID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"public_id": publicID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by public id: %w", err)
	}

	return &booking, nil
}

// FindActiveByVehicleAndDate returns pending and confirmed bookings holding
// the vehicle on the given calendar date. Rejected and cancelled bookings
// release their slot and are excluded.
func (r *mongoBookingRepository) FindActiveByVehicleAndDate(ctx context.Context, vehicleType string, vehicleID string, date string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"vehicle.vehicle_type": vehicleType,
		"vehicle.vehicle_id":   vehicleID,
		"window.date":          date,
		"status":               bson.M{"$in": []string{model.StatusPending, model.StatusConfirmed}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "window.date", Value: 1}, {Key: "window.start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

// Confirm moves pending -> confirmed. The filter pins the expected status, so
// a booking that was cancelled or rejected in between matches nothing and the
// caller gets ErrStatusChanged.
func (r *mongoBookingRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"status":       model.StatusConfirmed,
		"confirmed_at": at,
	}}
	return r.casStatus(ctx, id, model.StatusPending, update)
}

func (r *mongoBookingRepository) Reject(ctx context.Context, id string, reason string, refund *model.Refund) error {
	set := bson.M{
		"status":        model.StatusRejected,
		"reject_reason": reason,
	}
	if refund != nil {
		set["refund"] = refund
	}
	return r.casStatus(ctx, id, model.StatusPending, bson.M{"$set": set})
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, id string, fromStatus string, refund *model.Refund) error {
	set := bson.M{"status": model.StatusCancelled}
	if refund != nil {
		set["refund"] = refund
	}
	return r.casStatus(ctx, id, fromStatus, bson.M{"$set": set})
}

func (r *mongoBookingRepository) casStatus(ctx context.Context, id string, expectedStatus string, update bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": expectedStatus}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

// CompleteRefund moves refund.status processing -> completed. It matches on
// the processing state so a repeated webhook delivery is a no-op error rather
// than a double write.
func (r *mongoBookingRepository) CompleteRefund(ctx context.Context, id string, externalRef string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "refund.status": model.RefundProcessing}
	update := bson.M{"$set": bson.M{
		"refund.status":       model.RefundCompleted,
		"refund.external_ref": externalRef,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to complete refund: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

// SetRefundDetails records the gateway's reference on a refund that is still
// processing, so the audit trail survives even if the completion webhook
// never arrives.
func (r *mongoBookingRepository) SetRefundDetails(ctx context.Context, id string, details string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "refund.status": model.RefundProcessing}
	update := bson.M{"$set": bson.M{"refund.details": details}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record refund details: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

// FindConfirmedUnreminded returns confirmed bookings on the given dates whose
// reminder latch is still unset. The dates bound the scan; the caller applies
// the exact time window.
func (r *mongoBookingRepository) FindConfirmedUnreminded(ctx context.Context, dates []string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":        model.StatusConfirmed,
		"reminder_sent": false,
		"window.date":   bson.M{"$in": dates},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find unreminded bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

// MarkReminded flips the reminder latch false -> true. A concurrent sweep that
// lost the race gets ErrAlreadyReminded and must not send.
func (r *mongoBookingRepository) MarkReminded(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "reminder_sent": false}
	update := bson.M{"$set": bson.M{
		"reminder_sent": true,
		"reminded_at":   at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark booking reminded: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingserrors.ErrAlreadyReminded
	}
	return nil
}

// ClearReminded releases the latch after a failed send so the next sweep can
// retry the notification.
func (r *mongoBookingRepository) ClearReminded(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set":   bson.M{"reminder_sent": false},
		"$unset": bson.M{"reminded_at": ""},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update); err != nil {
		return fmt.Errorf("failed to clear reminder latch: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
