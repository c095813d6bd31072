package db

import (
	"context"
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPlanCollection implements PlanCollection for MongoDB.
// A machine has at most one plan per task type.
type MongoPlanCollection struct {
	Collection *mongo.Collection
}

// FindPlansByMachine returns every plan configured for a machine.
func (c *MongoPlanCollection) FindPlansByMachine(ctx context.Context, machineID string) ([]models.MaintenancePlan, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"machine_id": machineID},
		options.Find().SetSort(bson.D{{Key: "task_type", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []models.MaintenancePlan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// UpsertPlan creates or replaces the plan for the machine and task type.
func (c *MongoPlanCollection) UpsertPlan(ctx context.Context, plan models.MaintenancePlan) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err := c.Collection.UpdateOne(ctx,
		bson.M{"machine_id": plan.MachineID, "task_type": plan.TaskType},
		bson.M{
			"$set": bson.M{
				"interval_hours":     plan.IntervalHours,
				"last_service_hours": plan.LastServiceHours,
				"estimated_cost":     plan.EstimatedCost,
				"updated_at":         plan.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": plan.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// MarkServiced moves a plan's last service forward to hours. An older reading
// leaves the plan unchanged. It reports whether a plan for the task exists.
func (c *MongoPlanCollection) MarkServiced(ctx context.Context, machineID string, taskType models.TaskType, hours float64) (bool, error) {
	if c.Collection == nil {
		return false, errNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"machine_id": machineID, "task_type": taskType},
		bson.M{
			"$max": bson.M{"last_service_hours": hours},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
