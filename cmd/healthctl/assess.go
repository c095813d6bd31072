package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// bundle is the offline input of the assess command.
type bundle struct {
	Machine         models.Machine           `json:"machine"`
	Plans           []models.MaintenancePlan `json:"plans"`
	MaintenanceLogs []models.MaintenanceLog  `json:"maintenance_logs"`
	WorkLogs        []models.WorkLog         `json:"work_logs"`
}

func assessCmd(v *viper.Viper) *cobra.Command {
	var (
		input  string
		asJSON bool
		at     string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess machine health from a JSON export",
		Long: `Assess reads a JSON document with a machine, its maintenance plans,
maintenance history and work logs, and prints the health assessment.
Machines without plans are assessed against the catalog defaults.`,
		Example: `  healthctl assess --input tractor-07.json
  healthctl assess --input tractor-07.json --json --at 2024-06-15T00:00:00Z`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			var b bundle
			if err := json.Unmarshal(data, &b); err != nil {
				return fmt.Errorf("failed to parse input: %w", err)
			}
			if !models.IsValidMachineType(b.Machine.Type) {
				return fmt.Errorf("unknown machine type %q", b.Machine.Type)
			}

			var opts []maintenance.Option
			if at != "" {
				now, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				opts = append(opts, maintenance.WithClock(func() time.Time { return now }))
			}
			engine, err := engineFromConfig(v, opts...)
			if err != nil {
				return err
			}

			plans := b.Plans
			if len(plans) == 0 {
				plans = engine.GenerateDefaultPlans(b.Machine.Type, b.Machine.EngineHours)
			}
			a := engine.AssessMachineHealth(b.Machine, plans, b.MaintenanceLogs, b.WorkLogs)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			renderAssessment(cmd.OutOrStdout(), b.Machine, a)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file to assess")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the assessment as JSON")
	cmd.Flags().StringVar(&at, "at", "", "assess as of this RFC3339 time")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
