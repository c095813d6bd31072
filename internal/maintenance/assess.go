package maintenance

import (
	"sort"
	"strings"

	"github.com/ukydev/farm-maintenance/internal/models"
)

// AllGoodRecommendation is returned when no other recommendation applies.
const AllGoodRecommendation = "设备状态良好，请继续保持定期保养"

func urgencyPenalty(u models.Urgency) float64 {
	switch u {
	case models.UrgencyOverdue:
		return 25
	case models.UrgencyUrgent:
		return 15
	case models.UrgencyHigh:
		return 10
	case models.UrgencyMedium:
		return 5
	default:
		return 0
	}
}

// AssessMachineHealth computes the usage factors once, predicts every plan and
// aggregates the results into a health assessment. Predictions are ordered
// most urgent first.
func (e *Engine) AssessMachineHealth(machine models.Machine, plans []models.MaintenancePlan, maintenanceLogs []models.MaintenanceLog, workLogs []models.WorkLog) models.HealthAssessment {
	avgDailyHours := e.AverageDailyHours(workLogs, DefaultWindowDays)
	intensity := IntensityFactor(workLogs)
	risk := FailureRiskFactor(maintenanceLogs)

	predictions := make([]models.PredictionResult, 0, len(plans))
	for _, plan := range plans {
		predictions = append(predictions, e.PredictNextMaintenance(machine, plan, avgDailyHours, intensity, risk))
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Urgency.Severity() < predictions[j].Urgency.Severity()
	})

	score := 100.0
	for _, p := range predictions {
		score -= urgencyPenalty(p.Urgency)
	}
	switch {
	case risk > 1.3:
		score -= 10
	case risk > 1.1:
		score -= 5
	}
	score = clamp(score, 0, 100)

	return models.HealthAssessment{
		MachineID:           machine.ID.Hex(),
		Score:               score,
		Level:               LevelForScore(score),
		Predictions:         predictions,
		Recommendations:     recommendations(predictions, intensity, risk),
		EstimatedAnnualCost: annualCost(plans, avgDailyHours),
		AssessedAt:          e.now().UTC(),
	}
}

// LevelForScore buckets a score. Each bound is exclusive, so a score of
// exactly 30 is poor rather than critical.
func LevelForScore(score float64) models.HealthLevel {
	switch {
	case score < 30:
		return models.HealthCritical
	case score < 50:
		return models.HealthPoor
	case score < 70:
		return models.HealthFair
	case score < 85:
		return models.HealthGood
	default:
		return models.HealthExcellent
	}
}

func recommendations(predictions []models.PredictionResult, intensity, risk float64) []string {
	var overdue, urgent []string
	for _, p := range predictions {
		switch p.Urgency {
		case models.UrgencyOverdue:
			overdue = append(overdue, p.TaskName)
		case models.UrgencyUrgent:
			urgent = append(urgent, p.TaskName)
		}
	}

	var recs []string
	if len(overdue) > 0 {
		recs = append(recs, "以下保养项目已逾期，请立即安排："+strings.Join(overdue, "、"))
	}
	if len(urgent) > 0 {
		recs = append(recs, "以下保养项目将在7天内到期，请提前准备："+strings.Join(urgent, "、"))
	}
	if risk > 1.2 {
		recs = append(recs, "设备历史维修频率较高，建议进行全面检查")
	}
	if intensity > 1.2 {
		recs = append(recs, "近期作业强度较大，建议适当缩短保养间隔")
	}
	if len(recs) == 0 {
		recs = append(recs, AllGoodRecommendation)
	}
	return recs
}

// annualCost projects yearly spend from the nominal, unadjusted intervals.
// Plans without a positive interval are skipped.
func annualCost(plans []models.MaintenancePlan, avgDailyHours float64) float64 {
	total := 0.0
	for _, plan := range plans {
		if plan.IntervalHours <= 0 {
			continue
		}
		total += plan.EstimatedCost * (avgDailyHours * 365 / plan.IntervalHours)
	}
	return total
}
