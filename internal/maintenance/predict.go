package maintenance

import (
	"fmt"
	"math"

	"github.com/ukydev/farm-maintenance/internal/models"
)

// Remaining-hours thresholds for urgency classification.
const (
	urgentHours = 50
	highHours   = 100
	mediumHours = 200
)

const (
	baseConfidence   = 70.0
	signalConfidence = 10.0
	maxConfidence    = 95.0
)

// PredictNextMaintenance forecasts when a plan's task is next due.
//
// The nominal interval is shortened by the product of the machine-type,
// intensity and failure-risk factors. Confidence only reflects how many of the
// three usage signals differ from their neutral defaults; 70 means no history
// was available.
func (e *Engine) PredictNextMaintenance(machine models.Machine, plan models.MaintenancePlan, avgDailyHours, intensityFactor, failureRiskFactor float64) models.PredictionResult {
	typeFactor := e.catalog.MachineFactor(machine.Type)
	combined := typeFactor * floorFactor(intensityFactor) * floorFactor(failureRiskFactor)
	adjustedInterval := plan.IntervalHours / combined

	nextServiceHours := plan.LastServiceHours + adjustedInterval
	remaining := nextServiceHours - machine.EngineHours

	confidence := baseConfidence
	if avgDailyHours != DefaultDailyHours {
		confidence += signalConfidence
	}
	if intensityFactor != neutralFactor {
		confidence += signalConfidence
	}
	if failureRiskFactor != neutralFactor {
		confidence += signalConfidence
	}

	var factors []string
	if typeFactor > 1 {
		factors = append(factors, fmt.Sprintf("%s磨损系数较高（×%.1f）", e.catalog.MachineName(machine.Type), typeFactor))
	}
	if intensityFactor > 1.1 {
		factors = append(factors, "近期作业强度较高，磨损加快")
	}
	if failureRiskFactor > 1.2 {
		factors = append(factors, "历史维修频率偏高，故障风险上升")
	}
	if remaining < 0 {
		factors = append(factors, "已超过保养周期")
	}

	return models.PredictionResult{
		TaskType:         plan.TaskType,
		TaskName:         e.catalog.TaskName(plan.TaskType),
		CurrentHours:     machine.EngineHours,
		NextServiceHours: nextServiceHours,
		RemainingHours:   remaining,
		PredictedDate:    e.today().AddDate(0, 0, daysUntil(remaining, avgDailyHours)),
		Urgency:          ClassifyUrgency(remaining),
		EstimatedCost:    plan.EstimatedCost,
		Confidence:       clamp(confidence, 0, maxConfidence),
		Factors:          factors,
	}
}

// ClassifyUrgency maps remaining engine hours to an urgency level.
func ClassifyUrgency(remainingHours float64) models.Urgency {
	switch {
	case remainingHours <= 0:
		return models.UrgencyOverdue
	case remainingHours <= urgentHours:
		return models.UrgencyUrgent
	case remainingHours <= highHours:
		return models.UrgencyHigh
	case remainingHours <= mediumHours:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// daysUntil converts remaining hours to whole days at the given usage rate.
// Overdue tasks are due today.
func daysUntil(remainingHours, avgDailyHours float64) int {
	if avgDailyHours <= 0 {
		avgDailyHours = DefaultDailyHours
	}
	days := math.Round(remainingHours / avgDailyHours)
	if days <= 0 {
		return 0
	}
	// AddDate takes an int; cap far-future dates at roughly a century.
	return int(math.Min(days, 36500))
}
