package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskType identifies a maintenance activity.
type TaskType string

const (
	TaskOilChange        TaskType = "oil_change"
	TaskFilterReplace    TaskType = "filter_replace"
	TaskBeltCheck        TaskType = "belt_check"
	TaskBrakeService     TaskType = "brake_service"
	TaskHydraulicService TaskType = "hydraulic_service"
	TaskEngineOverhaul   TaskType = "engine_overhaul"
	TaskGeneralService   TaskType = "general_service"

	// Unscheduled work; only ever appears in maintenance logs.
	TaskRepair          TaskType = "repair"
	TaskEmergencyRepair TaskType = "emergency_repair"
)

// IsRepair reports whether the task is corrective rather than scheduled work.
func (t TaskType) IsRepair() bool {
	return t == TaskRepair || t == TaskEmergencyRepair
}

// MaintenancePlan tracks one recurring task for a machine.
type MaintenancePlan struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MachineID        string             `json:"machine_id" bson:"machine_id"`
	TaskType         TaskType           `json:"task_type" bson:"task_type"`
	IntervalHours    float64            `json:"interval_hours" bson:"interval_hours"`
	LastServiceHours float64            `json:"last_service_hours" bson:"last_service_hours"`
	EstimatedCost    float64            `json:"estimated_cost" bson:"estimated_cost"` // in CNY
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// MaintenanceLog records a performed maintenance or repair event.
type MaintenanceLog struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MachineID   string             `json:"machine_id" bson:"machine_id"`
	TaskType    TaskType           `json:"task_type" bson:"task_type"`
	PerformedAt time.Time          `json:"performed_at" bson:"performed_at"`
	EngineHours float64            `json:"engine_hours" bson:"engine_hours"`
	Cost        float64            `json:"cost" bson:"cost"`
	Technician  string             `json:"technician" bson:"technician"`
	Notes       string             `json:"notes" bson:"notes"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// Validate rejects records with negative readings or a missing task.
func (l MaintenanceLog) Validate() error {
	if l.TaskType == "" {
		return errors.New("task_type is required")
	}
	if l.PerformedAt.IsZero() {
		return errors.New("performed_at is required")
	}
	if l.EngineHours < 0 {
		return errors.New("engine_hours must not be negative")
	}
	if l.Cost < 0 {
		return errors.New("cost must not be negative")
	}
	return nil
}
