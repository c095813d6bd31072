package maintenance

import (
	"math"
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
)

// GenerateDefaultPlans builds one plan per catalog task for a machine with no
// configured plans. Intervals are scaled by the machine-type factor and the
// last service is assumed to have happened on schedule.
func (e *Engine) GenerateDefaultPlans(machineType models.MachineType, currentEngineHours float64) []models.MaintenancePlan {
	factor := e.catalog.MachineFactor(machineType)
	now := e.now().UTC()

	plans := make([]models.MaintenancePlan, 0, len(e.catalog.Tasks))
	for _, def := range e.catalog.Tasks {
		interval := math.Round(def.IntervalHours / factor)
		last := 0.0
		if interval > 0 {
			last = math.Floor(currentEngineHours/interval) * interval
		}
		plans = append(plans, models.MaintenancePlan{
			TaskType:         def.Type,
			IntervalHours:    interval,
			LastServiceHours: last,
			EstimatedCost:    def.Cost,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	return plans
}

// Now returns the current time according to the engine's clock.
func (e *Engine) Now() time.Time {
	return e.now()
}
