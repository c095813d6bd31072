package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMachineCollection implements MachineCollection for MongoDB.
type MongoMachineCollection struct {
	Collection *mongo.Collection
}

// InsertMachine inserts a machine and returns its hex ID.
func (c *MongoMachineCollection) InsertMachine(ctx context.Context, machine models.Machine) (string, error) {
	if c.Collection == nil {
		return "", errNilCollection
	}
	if machine.ID.IsZero() {
		machine.ID = primitive.NewObjectID()
	}
	machine.CreatedAt = time.Now()
	machine.UpdatedAt = time.Now()

	if _, err := c.Collection.InsertOne(ctx, machine); err != nil {
		return "", err
	}
	return machine.ID.Hex(), nil
}

// FindMachineByID finds a machine by its ID.
func (c *MongoMachineCollection) FindMachineByID(ctx context.Context, id string) (*models.Machine, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var machine models.Machine
	err = c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&machine)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &machine, nil
}

// FindMachines returns every machine ordered by name.
func (c *MongoMachineCollection) FindMachines(ctx context.Context) ([]models.Machine, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var machines []models.Machine
	if err := cursor.All(ctx, &machines); err != nil {
		return nil, err
	}
	return machines, nil
}

// UpdateEngineHours raises the engine-hours counter. A reading lower than the
// stored value is rejected with ErrStaleReading.
func (c *MongoMachineCollection) UpdateEngineHours(ctx context.Context, id string, hours float64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "engine_hours": bson.M{"$lte": hours}},
		bson.M{"$set": bson.M{"engine_hours": hours, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleReading
}

// UpdateMachineStatus sets the operating status of a machine.
func (c *MongoMachineCollection) UpdateMachineStatus(ctx context.Context, id string, status string) error {
	return c.set(ctx, id, bson.M{"status": status})
}

// SetLastMaintenance records when the machine was last serviced.
func (c *MongoMachineCollection) SetLastMaintenance(ctx context.Context, id string, at time.Time) error {
	return c.set(ctx, id, bson.M{"last_maintenance_at": at})
}

func (c *MongoMachineCollection) set(ctx context.Context, id string, fields bson.M) error {
	if c.Collection == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	fields["updated_at"] = time.Now()

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
