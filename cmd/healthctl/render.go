package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func badge(l maintenance.Label) string {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(l.Color)).Render(l.Text)
}

func renderAssessment(w io.Writer, machine models.Machine, a models.HealthAssessment) {
	name := machine.Name
	if name == "" {
		name = string(machine.Type)
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  (%.0f h)", name, machine.EngineHours)))
	fmt.Fprintf(w, "Health score: %.0f  %s\n", a.Score, badge(maintenance.HealthLevelLabel(a.Level)))
	fmt.Fprintf(w, "Estimated annual cost: ¥%.0f\n\n", a.EstimatedAnnualCost)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Task"),
		headerStyle.Render("Urgency"),
		headerStyle.Render("Remaining h"),
		headerStyle.Render("Due"),
		headerStyle.Render("Cost"),
		headerStyle.Render("Confidence"))
	for _, p := range a.Predictions {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%s\t%.0f\t%.0f%%\n",
			p.TaskName,
			badge(maintenance.UrgencyLabel(p.Urgency)),
			p.RemainingHours,
			p.PredictedDate.Format("2006-01-02"),
			p.EstimatedCost,
			p.Confidence)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	for _, r := range a.Recommendations {
		fmt.Fprintf(w, "• %s\n", r)
	}

	var factors []string
	for _, p := range a.Predictions {
		factors = append(factors, p.Factors...)
	}
	if len(factors) > 0 {
		fmt.Fprintln(w, mutedStyle.Render("Factors: "+strings.Join(dedupe(factors), "; ")))
	}
}

func renderPlans(w io.Writer, catalog maintenance.Catalog, mt models.MachineType, plans []models.MaintenancePlan) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (factor %.2f)", catalog.MachineName(mt), catalog.MachineFactor(mt))))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Type"),
		headerStyle.Render("Task"),
		headerStyle.Render("Interval h"),
		headerStyle.Render("Last service h"),
		headerStyle.Render("Cost"))
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.0f\n",
			p.TaskType, catalog.TaskName(p.TaskType), p.IntervalHours, p.LastServiceHours, p.EstimatedCost)
	}
	_ = tw.Flush()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
