package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/farm-maintenance/internal/models"
)

type MockMachineCollection struct {
	mock.Mock
}

func (m *MockMachineCollection) InsertMachine(ctx context.Context, machine models.Machine) (string, error) {
	args := m.Called(ctx, machine)
	return args.String(0), args.Error(1)
}

func (m *MockMachineCollection) FindMachineByID(ctx context.Context, id string) (*models.Machine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Machine), args.Error(1)
}

func (m *MockMachineCollection) FindMachines(ctx context.Context) ([]models.Machine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Machine), args.Error(1)
}

func (m *MockMachineCollection) UpdateEngineHours(ctx context.Context, id string, hours float64) error {
	return m.Called(ctx, id, hours).Error(0)
}

func (m *MockMachineCollection) UpdateMachineStatus(ctx context.Context, id string, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockMachineCollection) SetLastMaintenance(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockPlanCollection struct {
	mock.Mock
}

func (m *MockPlanCollection) FindPlansByMachine(ctx context.Context, machineID string) ([]models.MaintenancePlan, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenancePlan), args.Error(1)
}

func (m *MockPlanCollection) UpsertPlan(ctx context.Context, plan models.MaintenancePlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockPlanCollection) MarkServiced(ctx context.Context, machineID string, taskType models.TaskType, hours float64) (bool, error) {
	args := m.Called(ctx, machineID, taskType, hours)
	return args.Bool(0), args.Error(1)
}

type MockMaintenanceLogCollection struct {
	mock.Mock
}

func (m *MockMaintenanceLogCollection) InsertMaintenanceLog(ctx context.Context, log models.MaintenanceLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockMaintenanceLogCollection) FindMaintenanceLogs(ctx context.Context, machineID string) ([]models.MaintenanceLog, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceLog), args.Error(1)
}

type MockWorkLogCollection struct {
	mock.Mock
}

func (m *MockWorkLogCollection) InsertWorkLog(ctx context.Context, log models.WorkLog) (string, error) {
	args := m.Called(ctx, log)
	return args.String(0), args.Error(1)
}

func (m *MockWorkLogCollection) FindWorkLogsSince(ctx context.Context, machineID string, since time.Time) ([]models.WorkLog, error) {
	args := m.Called(ctx, machineID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkLog), args.Error(1)
}

func (m *MockWorkLogCollection) CloseWorkLog(ctx context.Context, machineID, id string, end time.Time, fuel *float64) error {
	return m.Called(ctx, machineID, id, end, fuel).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, machineID string) (*models.HealthAssessment, error) {
	args := m.Called(ctx, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HealthAssessment), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, a models.HealthAssessment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, machineID string) error {
	return m.Called(ctx, machineID).Error(0)
}

func (m *MockCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
