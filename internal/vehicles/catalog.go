// Package vehicles reads the rental fleet. The catalog is maintained by a
// separate inventory tool; this service only looks vehicles up to price and
// validate bookings.
package vehicles

import (
	"context"
	"errors"
	"fmt"

	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Each vehicle type lives in its own collection.
var collectionByType = map[string]string{
	model.VehicleTypeBike: "Bikes",
	model.VehicleTypeCar:  "Cars",
}

type Catalog interface {
	Get(ctx context.Context, vehicleType string, vehicleID string) (*model.Vehicle, error)
	List(ctx context.Context, vehicleType string) ([]*model.Vehicle, error)
	SetAvailable(ctx context.Context, vehicleType string, vehicleID string, available bool) error
}

type mongoCatalog struct {
	cfg *config.Config
	db  *mongo.Database
}

func NewMongoCatalog(cfg *config.Config) Catalog {
	return &mongoCatalog{
		cfg: cfg,
		db:  cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (c *mongoCatalog) Get(ctx context.Context, vehicleType string, vehicleID string) (*model.Vehicle, error) {
	collName, ok := collectionByType[vehicleType]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown vehicle type: %s", vehicleType))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	var vehicle model.Vehicle
	err := c.db.Collection(collName).FindOne(ctx, bson.M{"_id": vehicleID}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		return nil, apperrors.Internal("Failed to look up vehicle", err)
	}
	vehicle.Type = vehicleType

	return &vehicle, nil
}

func (c *mongoCatalog) List(ctx context.Context, vehicleType string) ([]*model.Vehicle, error) {
	collName, ok := collectionByType[vehicleType]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown vehicle type: %s", vehicleType))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	cursor, err := c.db.Collection(collName).Find(ctx, bson.M{"available": true})
	if err != nil {
		return nil, apperrors.Internal("Failed to list vehicles", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*model.Vehicle
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, apperrors.Internal("Failed to decode vehicles", err)
	}
	for _, v := range vehicles {
		v.Type = vehicleType
	}

	return vehicles, nil
}

func (c *mongoCatalog) SetAvailable(ctx context.Context, vehicleType string, vehicleID string, available bool) error {
	collName, ok := collectionByType[vehicleType]
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("Unknown vehicle type: %s", vehicleType))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
	defer cancel()

	result, err := c.db.Collection(collName).UpdateOne(ctx,
		bson.M{"_id": vehicleID},
		bson.M{"$set": bson.M{"available": available}},
	)
	if err != nil {
		return apperrors.Internal("Failed to update vehicle availability", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundWithID("Vehicle", vehicleID)
	}

	return nil
}
