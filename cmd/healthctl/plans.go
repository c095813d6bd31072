package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/farm-maintenance/internal/models"
)

func plansCmd(v *viper.Viper) *cobra.Command {
	var (
		machineType string
		hours       float64
	)

	cmd := &cobra.Command{
		Use:     "plans",
		Short:   "Preview default maintenance plans for a machine type",
		Example: `  healthctl plans --type harvester --hours 2500`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mt := models.MachineType(machineType)
			if !models.IsValidMachineType(mt) {
				return fmt.Errorf("unknown machine type %q", machineType)
			}
			if hours < 0 {
				return fmt.Errorf("hours must not be negative")
			}
			engine, err := engineFromConfig(v)
			if err != nil {
				return err
			}
			renderPlans(cmd.OutOrStdout(), engine.Catalog(), mt, engine.GenerateDefaultPlans(mt, hours))
			return nil
		},
	}

	cmd.Flags().StringVarP(&machineType, "type", "t", "", "machine type (tractor, harvester, planter, sprayer, drone)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "current engine hours")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
