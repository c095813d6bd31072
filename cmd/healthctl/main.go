// Command healthctl runs offline maintenance assessments, previews default
// plans and issues API tokens.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukydev/farm-maintenance/internal/config"
	"github.com/ukydev/farm-maintenance/internal/maintenance"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "healthctl",
		Short: "Farm machine maintenance health toolkit",
		Long: `healthctl scores machine health from exported usage history,
previews the default maintenance plans for a machine type and issues
bearer tokens for the maintenance API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./healthctl.yaml)")
	root.PersistentFlags().String("catalog", "", "YAML maintenance catalog (default: built-in)")
	_ = v.BindPFlag("catalog", root.PersistentFlags().Lookup("catalog"))

	root.AddCommand(assessCmd(v))
	root.AddCommand(plansCmd(v))
	root.AddCommand(tokenCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("healthctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Share the server's variable names.
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "FARM_JWT_SECRET")
	_ = v.BindEnv("jwt.expiry", "JWT_EXPIRY", "FARM_JWT_EXPIRY")
	_ = v.BindEnv("catalog", "CATALOG_FILE", "FARM_CATALOG")
	v.SetDefault("jwt.expiry", 24*time.Hour)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// engineFromConfig builds an engine over the configured catalog.
func engineFromConfig(v *viper.Viper, opts ...maintenance.Option) (*maintenance.Engine, error) {
	path := v.GetString("catalog")
	if path == "" {
		return maintenance.New(maintenance.DefaultCatalog(), opts...), nil
	}
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return maintenance.New(catalog, opts...), nil
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}
