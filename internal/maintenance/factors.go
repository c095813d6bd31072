package maintenance

import (
	"time"

	"github.com/ukydev/farm-maintenance/internal/models"
)

const (
	// DefaultWindowDays is the look-back used for average daily hours.
	DefaultWindowDays = 30

	// DefaultDailyHours assumes one standard shift when no usage is recorded.
	// It is a fallback, not a measurement.
	DefaultDailyHours = 8.0

	// ReferenceFuelRate is the fuel burn (L/h) that maps to a neutral load.
	ReferenceFuelRate = 15.0

	minIntensity = 0.8
	maxIntensity = 1.5

	neutralFactor = 1.0
)

// AverageDailyHours returns the mean hours worked per active UTC day over the
// last windowDays. Only sessions that started inside the window and have an
// end time count. A non-positive window uses DefaultWindowDays.
func (e *Engine) AverageDailyHours(workLogs []models.WorkLog, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := e.now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	totalHours := 0.0
	days := make(map[time.Time]struct{})
	for _, wl := range workLogs {
		if wl.EndTime == nil || wl.StartTime.Before(cutoff) {
			continue
		}
		totalHours += wl.Hours()
		days[utcDate(wl.StartTime)] = struct{}{}
	}

	if len(days) == 0 {
		return DefaultDailyHours
	}
	return totalHours / float64(len(days))
}

// IntensityFactor maps the average fuel burn rate to a wear multiplier in
// [0.8, 1.5]. Sessions without an end time or fuel reading are ignored.
func IntensityFactor(workLogs []models.WorkLog) float64 {
	totalFuel := 0.0
	totalHours := 0.0
	for _, wl := range workLogs {
		if wl.EndTime == nil || wl.FuelConsumed == nil {
			continue
		}
		totalFuel += *wl.FuelConsumed
		totalHours += wl.Hours()
	}

	if totalHours <= 0 {
		return neutralFactor
	}

	avgFuelPerHour := totalFuel / totalHours
	return clamp(minIntensity+(avgFuelPerHour/ReferenceFuelRate)*0.4, minIntensity, maxIntensity)
}

// FailureRiskFactor raises wear by half the share of repairs in the
// maintenance history. It is a heuristic with no sample-size correction.
func FailureRiskFactor(maintenanceLogs []models.MaintenanceLog) float64 {
	if len(maintenanceLogs) == 0 {
		return neutralFactor
	}

	repairs := 0
	for _, l := range maintenanceLogs {
		if l.TaskType.IsRepair() {
			repairs++
		}
	}
	return neutralFactor + float64(repairs)/float64(len(maintenanceLogs))*0.5
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
