// Package service coordinates storage, caching and the maintenance engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/db"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidInput wraps every validation failure returned by the service.
var ErrInvalidInput = errors.New("invalid input")

// AssessmentCache stores computed assessments between writes.
type AssessmentCache interface {
	Get(ctx context.Context, machineID string) (*models.HealthAssessment, error)
	Set(ctx context.Context, a models.HealthAssessment) error
	Invalidate(ctx context.Context, machineID string) error
	InvalidateAll(ctx context.Context) error
}

// Stores groups the collections the service reads and writes.
type Stores struct {
	Machines        db.MachineCollection
	Plans           db.PlanCollection
	MaintenanceLogs db.MaintenanceLogCollection
	WorkLogs        db.WorkLogCollection
}

// HealthService answers health questions about machines and records the
// events that change the answers.
type HealthService struct {
	engine     atomic.Pointer[maintenance.Engine]
	stores     Stores
	cache      AssessmentCache
	windowDays int
}

// Option configures a HealthService.
type Option func(*HealthService)

// WithCache enables assessment caching.
func WithCache(c AssessmentCache) Option {
	return func(s *HealthService) {
		s.cache = c
	}
}

// WithWindowDays sets how many days of work logs feed the usage estimate.
func WithWindowDays(days int) Option {
	return func(s *HealthService) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// NewHealthService creates a service backed by the given engine and stores.
func NewHealthService(engine *maintenance.Engine, stores Stores, opts ...Option) *HealthService {
	s := &HealthService{
		stores:     stores,
		windowDays: maintenance.DefaultWindowDays,
	}
	s.engine.Store(engine)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine currently in use.
func (s *HealthService) Engine() *maintenance.Engine {
	return s.engine.Load()
}

// SwapEngine replaces the engine, e.g. after a catalog reload, and drops
// every cached assessment computed with the old one.
func (s *HealthService) SwapEngine(ctx context.Context, engine *maintenance.Engine) {
	s.engine.Store(engine)
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.WithError(err).Warn("Failed to flush assessment cache after catalog reload")
	}
}

// RegisterMachine validates and stores a new machine.
func (s *HealthService) RegisterMachine(ctx context.Context, machine models.Machine) (string, error) {
	if machine.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !models.IsValidMachineType(machine.Type) {
		return "", fmt.Errorf("%w: unknown machine type %q", ErrInvalidInput, machine.Type)
	}
	if machine.EngineHours < 0 {
		return "", fmt.Errorf("%w: engine_hours must not be negative", ErrInvalidInput)
	}
	if machine.Status == "" {
		machine.Status = models.StatusIdle
	}
	machine.ID = primitive.NilObjectID
	machine.LastMaintenanceAt = nil
	if !models.IsValidMachineStatus(machine.Status) {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, machine.Status)
	}
	return s.stores.Machines.InsertMachine(ctx, machine)
}

// ListMachines returns every registered machine.
func (s *HealthService) ListMachines(ctx context.Context) ([]models.Machine, error) {
	return s.stores.Machines.FindMachines(ctx)
}

// Assess returns the health assessment of a machine, from cache when fresh.
func (s *HealthService) Assess(ctx context.Context, machineID string) (*models.HealthAssessment, error) {
	if s.cache != nil {
		if a, err := s.cache.Get(ctx, machineID); err == nil {
			return a, nil
		}
	}

	machine, err := s.stores.Machines.FindMachineByID(ctx, machineID)
	if err != nil {
		return nil, err
	}
	return s.assess(ctx, machine)
}

// Predictions returns the ordered maintenance forecasts of a machine.
func (s *HealthService) Predictions(ctx context.Context, machineID string) ([]models.PredictionResult, error) {
	a, err := s.Assess(ctx, machineID)
	if err != nil {
		return nil, err
	}
	return a.Predictions, nil
}

func (s *HealthService) assess(ctx context.Context, machine *models.Machine) (*models.HealthAssessment, error) {
	engine := s.Engine()
	machineID := machine.ID.Hex()

	plans, err := s.stores.Plans.FindPlansByMachine(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	if len(plans) == 0 {
		plans = engine.GenerateDefaultPlans(machine.Type, machine.EngineHours)
	}

	maintenanceLogs, err := s.stores.MaintenanceLogs.FindMaintenanceLogs(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("load maintenance logs: %w", err)
	}

	since := engine.Now().AddDate(0, 0, -s.windowDays)
	workLogs, err := s.stores.WorkLogs.FindWorkLogsSince(ctx, machineID, since)
	if err != nil {
		return nil, fmt.Errorf("load work logs: %w", err)
	}

	a := engine.AssessMachineHealth(*machine, plans, maintenanceLogs, workLogs)

	if s.cache != nil {
		if err := s.cache.Set(ctx, a); err != nil {
			log.WithError(err).WithField("machine_id", machineID).Warn("Failed to cache assessment")
		}
	}
	return &a, nil
}

// InitDefaultPlans generates and stores the catalog plans for a machine,
// replacing any plan of the same task type.
func (s *HealthService) InitDefaultPlans(ctx context.Context, machineID string) ([]models.MaintenancePlan, error) {
	machine, err := s.stores.Machines.FindMachineByID(ctx, machineID)
	if err != nil {
		return nil, err
	}

	plans := s.Engine().GenerateDefaultPlans(machine.Type, machine.EngineHours)
	for i := range plans {
		plans[i].MachineID = machineID
		if err := s.stores.Plans.UpsertPlan(ctx, plans[i]); err != nil {
			return nil, fmt.Errorf("store %s plan: %w", plans[i].TaskType, err)
		}
	}
	s.invalidate(ctx, machineID)

	log.WithFields(log.Fields{"machine_id": machineID, "plans": len(plans)}).Info("Default maintenance plans initialised")
	return plans, nil
}

// RecordMaintenance stores a performed maintenance event. Scheduled tasks
// reset the matching plan to the reported engine hours.
func (s *HealthService) RecordMaintenance(ctx context.Context, entry models.MaintenanceLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	machine, err := s.stores.Machines.FindMachineByID(ctx, entry.MachineID)
	if err != nil {
		return err
	}

	if err := s.stores.MaintenanceLogs.InsertMaintenanceLog(ctx, entry); err != nil {
		return fmt.Errorf("store maintenance log: %w", err)
	}

	if !entry.TaskType.IsRepair() {
		found, err := s.stores.Plans.MarkServiced(ctx, entry.MachineID, entry.TaskType, entry.EngineHours)
		if err != nil {
			return fmt.Errorf("mark plan serviced: %w", err)
		}
		if !found {
			log.WithFields(log.Fields{
				"machine_id": entry.MachineID,
				"task_type":  entry.TaskType,
			}).Debug("No plan for serviced task")
		}
	}

	if machine.LastMaintenanceAt == nil || entry.PerformedAt.After(*machine.LastMaintenanceAt) {
		if err := s.stores.Machines.SetLastMaintenance(ctx, entry.MachineID, entry.PerformedAt); err != nil {
			return fmt.Errorf("update last maintenance: %w", err)
		}
	}
	if entry.EngineHours > machine.EngineHours {
		if err := s.stores.Machines.UpdateEngineHours(ctx, entry.MachineID, entry.EngineHours); err != nil && !errors.Is(err, db.ErrStaleReading) {
			return fmt.Errorf("update engine hours: %w", err)
		}
	}

	s.invalidate(ctx, entry.MachineID)
	return nil
}

// RecordWorkLog stores a work session and returns its ID.
func (s *HealthService) RecordWorkLog(ctx context.Context, entry models.WorkLog) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.stores.Machines.FindMachineByID(ctx, entry.MachineID); err != nil {
		return "", err
	}

	id, err := s.stores.WorkLogs.InsertWorkLog(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("store work log: %w", err)
	}
	s.invalidate(ctx, entry.MachineID)
	return id, nil
}

// CloseWorkLog ends an open work session.
func (s *HealthService) CloseWorkLog(ctx context.Context, machineID, workLogID string, end time.Time, fuel *float64) error {
	if end.IsZero() {
		return fmt.Errorf("%w: end_time is required", ErrInvalidInput)
	}
	if fuel != nil && *fuel < 0 {
		return fmt.Errorf("%w: fuel_consumed must not be negative", ErrInvalidInput)
	}
	if err := s.stores.WorkLogs.CloseWorkLog(ctx, machineID, workLogID, end, fuel); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("no open work log %s for machine %s: %w", workLogID, machineID, err)
		}
		return err
	}
	s.invalidate(ctx, machineID)
	return nil
}

// ReportEngineHours advances a machine's cumulative engine hours.
func (s *HealthService) ReportEngineHours(ctx context.Context, machineID string, hours float64) error {
	if hours < 0 {
		return fmt.Errorf("%w: engine hours must not be negative", ErrInvalidInput)
	}
	if err := s.stores.Machines.UpdateEngineHours(ctx, machineID, hours); err != nil {
		return err
	}
	s.invalidate(ctx, machineID)
	return nil
}

// UpdateStatus changes a machine's operating status.
func (s *HealthService) UpdateStatus(ctx context.Context, machineID, status string) error {
	if !models.IsValidMachineStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.stores.Machines.UpdateMachineStatus(ctx, machineID, status)
}

func (s *HealthService) invalidate(ctx context.Context, machineID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, machineID); err != nil {
		log.WithError(err).WithField("machine_id", machineID).Warn("Failed to invalidate cached assessment")
	}
}
