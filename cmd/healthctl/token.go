package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/farm-maintenance/internal/auth"
	"github.com/ukydev/farm-maintenance/internal/models"
)

func tokenCmd(v *viper.Viper) *cobra.Command {
	var (
		subject string
		role    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the maintenance API",
		Long: `Token signs a JWT with the server's secret (JWT_SECRET). Tokens carry
a subject and one of the roles admin, manager, operator or viewer.`,
		Example: `  JWT_SECRET=... healthctl token --user mqtt-ingest --role operator`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := auth.NewService(v.GetString("jwt.secret"), v.GetDuration("jwt.expiry"))
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(subject, models.Role(role))
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&subject, "user", "u", "", "token subject")
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleViewer), "role granted by the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
