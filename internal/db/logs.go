package db

import (
	"context"
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMaintenanceLogCollection implements MaintenanceLogCollection for MongoDB.
type MongoMaintenanceLogCollection struct {
	Collection *mongo.Collection
}

// InsertMaintenanceLog appends a maintenance record.
func (c *MongoMaintenanceLogCollection) InsertMaintenanceLog(ctx context.Context, log models.MaintenanceLog) error {
	if c.Collection == nil {
		return errNilCollection
	}
	log.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, log)
	return err
}

// FindMaintenanceLogs returns a machine's maintenance history, newest first.
func (c *MongoMaintenanceLogCollection) FindMaintenanceLogs(ctx context.Context, machineID string) ([]models.MaintenanceLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"machine_id": machineID},
		options.Find().SetSort(bson.D{{Key: "performed_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []models.MaintenanceLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// MongoWorkLogCollection implements WorkLogCollection for MongoDB.
type MongoWorkLogCollection struct {
	Collection *mongo.Collection
}

// InsertWorkLog appends a work session and returns its hex ID.
func (c *MongoWorkLogCollection) InsertWorkLog(ctx context.Context, log models.WorkLog) (string, error) {
	if c.Collection == nil {
		return "", errNilCollection
	}
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	log.CreatedAt = time.Now()

	if _, err := c.Collection.InsertOne(ctx, log); err != nil {
		return "", err
	}
	return log.ID.Hex(), nil
}

// FindWorkLogsSince returns sessions that started at or after since, newest first.
func (c *MongoWorkLogCollection) FindWorkLogsSince(ctx context.Context, machineID string, since time.Time) ([]models.WorkLog, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := bson.M{"machine_id": machineID, "start_time": bson.M{"$gte": since}}
	cursor, err := c.Collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []models.WorkLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// CloseWorkLog sets the end time and fuel of a still-open session belonging
// to machineID. Sessions of other machines are reported as ErrNotFound.
func (c *MongoWorkLogCollection) CloseWorkLog(ctx context.Context, machineID, id string, end time.Time, fuel *float64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{"end_time": end}
	if fuel != nil {
		set["fuel_consumed"] = *fuel
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "machine_id": machineID, "end_time": bson.M{"$exists": false}, "start_time": bson.M{"$lte": end}},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
