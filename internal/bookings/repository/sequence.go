package repository

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "renthub/internal/bookings/errors"
	"renthub/pkg/config"
	"renthub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SequenceCollectionName = "SequenceCounters"

// SequenceRepository holds the global booking counter. IncrementAndGet is the
// fast path; Get plus CompareAndSet exists as an optimistic fallback for
// callers that need read-modify-write.
type SequenceRepository interface {
	IncrementAndGet(ctx context.Context, counterID string) (int64, error)
	Get(ctx context.Context, counterID string) (int64, error)
	CompareAndSet(ctx context.Context, counterID string, expected int64, next int64) error
}

type mongoSequenceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSequenceRepository(cfg *config.Config) SequenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSequenceRepository{
		cfg:        cfg,
		collection: db.Collection(SequenceCollectionName),
	}
}

// IncrementAndGet atomically advances the counter and returns the new value,
// creating the counter document on first use.
func (r *mongoSequenceRepository) IncrementAndGet(ctx context.Context, counterID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": counterID}
	update := bson.M{"$inc": bson.M{"current_value": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter model.SequenceCounter
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to increment sequence counter: %w", err)
	}

	return counter.CurrentValue, nil
}

func (r *mongoSequenceRepository) Get(ctx context.Context, counterID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var counter model.SequenceCounter
	err := r.collection.FindOne(ctx, bson.M{"_id": counterID}).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sequence counter: %w", err)
	}

	return counter.CurrentValue, nil
}

// CompareAndSet writes next only if the stored value still equals expected.
func (r *mongoSequenceRepository) CompareAndSet(ctx context.Context, counterID string, expected int64, next int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": counterID, "current_value": expected}
	update := bson.M{"$set": bson.M{"current_value": next}}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(expected == 0))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSequenceConflict
		}
		return fmt.Errorf("failed to update sequence counter: %w", err)
	}

	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return bookingserrors.ErrSequenceConflict
	}
	return nil
}
