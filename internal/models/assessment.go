package models

import "time"

// Urgency classifies how soon a maintenance task is due.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
)

// Severity orders urgencies; lower is more urgent.
func (u Urgency) Severity() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 3
	default:
		return 4
	}
}

// HealthLevel is the qualitative bucket of a health score.
type HealthLevel string

const (
	HealthCritical  HealthLevel = "critical"
	HealthPoor      HealthLevel = "poor"
	HealthFair      HealthLevel = "fair"
	HealthGood      HealthLevel = "good"
	HealthExcellent HealthLevel = "excellent"
)

// PredictionResult is the forecast for one maintenance task.
type PredictionResult struct {
	TaskType         TaskType  `json:"task_type"`
	TaskName         string    `json:"task_name"`
	CurrentHours     float64   `json:"current_hours"`
	NextServiceHours float64   `json:"next_service_hours"`
	RemainingHours   float64   `json:"remaining_hours"` // negative when overdue
	PredictedDate    time.Time `json:"predicted_date"`
	Urgency          Urgency   `json:"urgency"`
	EstimatedCost    float64   `json:"estimated_cost"`
	Confidence       float64   `json:"confidence"`
	Factors          []string  `json:"factors"`
}

// HealthAssessment is the aggregate health report for one machine.
type HealthAssessment struct {
	MachineID           string             `json:"machine_id"`
	Score               float64            `json:"score"`
	Level               HealthLevel        `json:"level"`
	Predictions         []PredictionResult `json:"predictions"`
	Recommendations     []string           `json:"recommendations"`
	EstimatedAnnualCost float64            `json:"estimated_annual_cost"`
	AssessedAt          time.Time          `json:"assessed_at"`
}

// CountUrgency returns how many predictions carry the given urgency.
func (a HealthAssessment) CountUrgency(u Urgency) int {
	n := 0
	for _, p := range a.Predictions {
		if p.Urgency == u {
			n++
		}
	}
	return n
}
