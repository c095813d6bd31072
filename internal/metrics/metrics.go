// Package metrics renders fleet health as Prometheus text exposition.
package metrics

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/ukydev/farm-maintenance/internal/models"
	"github.com/ukydev/farm-maintenance/internal/service"
)

// Metric names.
const (
	HealthScore       = "farm_machine_health_score"
	OverdueTasks      = "farm_machine_overdue_tasks"
	AnnualCost        = "farm_machine_annual_maintenance_cost"
	FleetMachines     = "farm_fleet_machines"
	FleetAverageScore = "farm_fleet_average_health_score"
)

var levels = []models.HealthLevel{
	models.HealthCritical,
	models.HealthPoor,
	models.HealthFair,
	models.HealthGood,
	models.HealthExcellent,
}

// ContentType is the media type written by Write.
func ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

// FromOverview builds gauge families from a fleet overview.
func FromOverview(o *service.FleetOverview) []*dto.MetricFamily {
	score := gaugeFamily(HealthScore, "Composite maintenance health score (0-100).")
	overdue := gaugeFamily(OverdueTasks, "Maintenance tasks past their adjusted interval.")
	cost := gaugeFamily(AnnualCost, "Estimated annual scheduled maintenance cost in CNY.")

	machines := append([]service.MachineHealth(nil), o.Machines...)
	sort.Slice(machines, func(i, j int) bool { return machines[i].MachineID < machines[j].MachineID })

	for _, m := range machines {
		labels := []*dto.LabelPair{
			label("machine_id", m.MachineID),
			label("name", m.Name),
			label("type", string(m.Type)),
		}
		score.Metric = append(score.Metric, gauge(m.Score, labels...))
		overdue.Metric = append(overdue.Metric, gauge(float64(m.OverdueTasks), labels...))
		cost.Metric = append(cost.Metric, gauge(m.AnnualCost, labels...))
	}

	fleet := gaugeFamily(FleetMachines, "Machines per health level.")
	for _, l := range levels {
		fleet.Metric = append(fleet.Metric, gauge(float64(o.LevelCounts[l]), label("level", string(l))))
	}

	avg := gaugeFamily(FleetAverageScore, "Average health score across the fleet.")
	avg.Metric = append(avg.Metric, gauge(o.AverageScore))

	return []*dto.MetricFamily{score, overdue, cost, fleet, avg}
}

// Write encodes families in the Prometheus text format. Families without
// samples are skipped since the text format cannot represent them.
func Write(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: ptr(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

func ptr[T any](v T) *T { return &v }
