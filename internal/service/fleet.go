package service

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// MachineHealth summarises one machine's assessment within a fleet overview.
type MachineHealth struct {
	MachineID    string             `json:"machine_id"`
	Name         string             `json:"name"`
	Type         models.MachineType `json:"type"`
	Score        float64            `json:"score"`
	Level        models.HealthLevel `json:"level"`
	OverdueTasks int                `json:"overdue_tasks"`
	UrgentTasks  int                `json:"urgent_tasks"`
	AnnualCost   float64            `json:"annual_cost"`
}

// FleetOverview aggregates the health of every machine.
type FleetOverview struct {
	TotalMachines   int                        `json:"total_machines"`
	LevelCounts     map[models.HealthLevel]int `json:"level_counts"`
	AverageScore    float64                    `json:"average_score"`
	TotalAnnualCost float64                    `json:"total_annual_cost"`
	NeedsAttention  []MachineHealth            `json:"needs_attention"`
	Machines        []MachineHealth            `json:"machines"`
}

// FleetOverview assesses every machine. Machines that fail to assess are
// logged and left out of the aggregates.
func (s *HealthService) FleetOverview(ctx context.Context) (*FleetOverview, error) {
	machines, err := s.stores.Machines.FindMachines(ctx)
	if err != nil {
		return nil, err
	}

	overview := &FleetOverview{
		LevelCounts:    make(map[models.HealthLevel]int),
		NeedsAttention: []MachineHealth{},
		Machines:       make([]MachineHealth, 0, len(machines)),
	}

	var scoreSum float64
	for i := range machines {
		machineID := machines[i].ID.Hex()

		var a *models.HealthAssessment
		if s.cache != nil {
			a, _ = s.cache.Get(ctx, machineID)
		}
		if a == nil {
			a, err = s.assess(ctx, &machines[i])
			if err != nil {
				log.WithError(err).WithField("machine_id", machineID).Warn("Skipping machine in fleet overview")
				continue
			}
		}

		mh := MachineHealth{
			MachineID:    machineID,
			Name:         machines[i].Name,
			Type:         machines[i].Type,
			Score:        a.Score,
			Level:        a.Level,
			OverdueTasks: a.CountUrgency(models.UrgencyOverdue),
			UrgentTasks:  a.CountUrgency(models.UrgencyUrgent),
			AnnualCost:   a.EstimatedAnnualCost,
		}
		overview.Machines = append(overview.Machines, mh)
		overview.LevelCounts[a.Level]++
		overview.TotalAnnualCost += a.EstimatedAnnualCost
		scoreSum += a.Score

		if a.Level == models.HealthCritical || a.Level == models.HealthPoor {
			overview.NeedsAttention = append(overview.NeedsAttention, mh)
		}
	}

	overview.TotalMachines = len(overview.Machines)
	if overview.TotalMachines > 0 {
		overview.AverageScore = scoreSum / float64(overview.TotalMachines)
	}
	sort.SliceStable(overview.NeedsAttention, func(i, j int) bool {
		return overview.NeedsAttention[i].Score < overview.NeedsAttention[j].Score
	})
	return overview, nil
}
