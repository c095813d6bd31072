package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/db"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/metrics"
	"github.com/ukydev/farm-maintenance/internal/middleware"
	"github.com/ukydev/farm-maintenance/internal/models"
	"github.com/ukydev/farm-maintenance/internal/service"
)

const maxBodyBytes = 1 << 20

// HealthService is the subset of the service layer the HTTP API needs.
type HealthService interface {
	Engine() *maintenance.Engine
	RegisterMachine(ctx context.Context, machine models.Machine) (string, error)
	ListMachines(ctx context.Context) ([]models.Machine, error)
	Assess(ctx context.Context, machineID string) (*models.HealthAssessment, error)
	Predictions(ctx context.Context, machineID string) ([]models.PredictionResult, error)
	FleetOverview(ctx context.Context) (*service.FleetOverview, error)
	InitDefaultPlans(ctx context.Context, machineID string) ([]models.MaintenancePlan, error)
	RecordMaintenance(ctx context.Context, entry models.MaintenanceLog) error
	RecordWorkLog(ctx context.Context, entry models.WorkLog) (string, error)
	CloseWorkLog(ctx context.Context, machineID, workLogID string, end time.Time, fuel *float64) error
	ReportEngineHours(ctx context.Context, machineID string, hours float64) error
	UpdateStatus(ctx context.Context, machineID, status string) error
}

// MachineHandler serves machine health and maintenance endpoints
type MachineHandler struct {
	service HealthService
}

// NewMachineHandler creates a new machine handler
func NewMachineHandler(svc HealthService) *MachineHandler {
	return &MachineHandler{service: svc}
}

// Health is the unauthenticated liveness probe
func (h *MachineHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics exposes fleet health in the Prometheus text format
func (h *MachineHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.FleetOverview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", metrics.ContentType())
	if err := metrics.Write(w, metrics.FromOverview(overview)); err != nil {
		log.WithError(err).Error("Failed to write metrics")
	}
}

// CreateMachine registers a machine
func (h *MachineHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var machine models.Machine
	if !decodeBody(w, r, &machine) {
		return
	}
	id, err := h.service.RegisterMachine(r.Context(), machine)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListMachines returns every registered machine
func (h *MachineHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.service.ListMachines(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if machines == nil {
		machines = []models.Machine{}
	}
	writeJSON(w, http.StatusOK, machines)
}

// GetHealth returns the health assessment of a machine
func (h *MachineHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Assess(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetPredictions returns the ordered maintenance forecasts of a machine
func (h *MachineHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	preds, err := h.service.Predictions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// GetFleetOverview aggregates the health of all machines
func (h *MachineHandler) GetFleetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.FleetOverview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// InitDefaultPlans stores the catalog plans for a machine
func (h *MachineHandler) InitDefaultPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.InitDefaultPlans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plans)
}

// CreateMaintenanceLog records a performed maintenance event
func (h *MachineHandler) CreateMaintenanceLog(w http.ResponseWriter, r *http.Request) {
	var entry models.MaintenanceLog
	if !decodeBody(w, r, &entry) {
		return
	}
	entry.MachineID = chi.URLParam(r, "id")
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = time.Now().UTC()
	}
	if err := h.service.RecordMaintenance(r.Context(), entry); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// CreateWorkLog records a work session
func (h *MachineHandler) CreateWorkLog(w http.ResponseWriter, r *http.Request) {
	var entry models.WorkLog
	if !decodeBody(w, r, &entry) {
		return
	}
	entry.MachineID = chi.URLParam(r, "id")
	id, err := h.service.RecordWorkLog(r.Context(), entry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type closeWorkLogRequest struct {
	EndTime      time.Time `json:"end_time"`
	FuelConsumed *float64  `json:"fuel_consumed,omitempty"`
}

// CloseWorkLog ends an open work session
func (h *MachineHandler) CloseWorkLog(w http.ResponseWriter, r *http.Request) {
	var req closeWorkLogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.service.CloseWorkLog(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "logID"), req.EndTime, req.FuelConsumed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type engineHoursRequest struct {
	EngineHours *float64 `json:"engine_hours"`
}

// UpdateEngineHours advances the cumulative engine hours of a machine
func (h *MachineHandler) UpdateEngineHours(w http.ResponseWriter, r *http.Request) {
	var req engineHoursRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.EngineHours == nil {
		errorJSON(w, http.StatusBadRequest, "engine_hours is required")
		return
	}
	if err := h.service.ReportEngineHours(r.Context(), chi.URLParam(r, "id"), *req.EngineHours); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus changes the operating status of a machine
func (h *MachineHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewPlans returns the default plans a machine type would receive
func (h *MachineHandler) PreviewPlans(w http.ResponseWriter, r *http.Request) {
	machineType := models.MachineType(r.URL.Query().Get("type"))
	if !models.IsValidMachineType(machineType) {
		errorJSON(w, http.StatusBadRequest, "Unknown machine type")
		return
	}

	hours := 0.0
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			errorJSON(w, http.StatusBadRequest, "hours must be a non-negative number")
			return
		}
		hours = parsed
	}

	writeJSON(w, http.StatusOK, h.service.Engine().GenerateDefaultPlans(machineType, hours))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// errorJSON writes {"error": msg} with the given status.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrNotFound):
		msg := "Not found"
		if err != db.ErrNotFound {
			msg = err.Error()
		}
		errorJSON(w, http.StatusNotFound, msg)
	case errors.Is(err, db.ErrStaleReading):
		errorJSON(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("Request failed")
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
	}
}
