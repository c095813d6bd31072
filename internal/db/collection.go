package db

import (
	"context"
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
)

// MachineCollection defines the interface for machine data operations.
type MachineCollection interface {
	InsertMachine(ctx context.Context, machine models.Machine) (string, error)
	FindMachineByID(ctx context.Context, id string) (*models.Machine, error)
	FindMachines(ctx context.Context) ([]models.Machine, error)
	UpdateEngineHours(ctx context.Context, id string, hours float64) error
	UpdateMachineStatus(ctx context.Context, id string, status string) error
	SetLastMaintenance(ctx context.Context, id string, at time.Time) error
}

// PlanCollection defines the interface for maintenance plan operations.
type PlanCollection interface {
	FindPlansByMachine(ctx context.Context, machineID string) ([]models.MaintenancePlan, error)
	UpsertPlan(ctx context.Context, plan models.MaintenancePlan) error
	MarkServiced(ctx context.Context, machineID string, taskType models.TaskType, hours float64) (bool, error)
}

// MaintenanceLogCollection defines the interface for maintenance history operations.
type MaintenanceLogCollection interface {
	InsertMaintenanceLog(ctx context.Context, log models.MaintenanceLog) error
	FindMaintenanceLogs(ctx context.Context, machineID string) ([]models.MaintenanceLog, error)
}

// WorkLogCollection defines the interface for work session operations.
type WorkLogCollection interface {
	InsertWorkLog(ctx context.Context, log models.WorkLog) (string, error)
	FindWorkLogsSince(ctx context.Context, machineID string, since time.Time) ([]models.WorkLog, error)
	CloseWorkLog(ctx context.Context, machineID, id string, end time.Time, fuel *float64) error
}
