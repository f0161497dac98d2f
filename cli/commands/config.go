package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/config"
	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the connection settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			password := ""
			if cfg.Password != "" {
				password = "********"
			}
			return ui.PrintTable([]string{"key", "value"}, [][]string{
				{"provider", cfg.Provider},
				{"host", cfg.Host},
				{"port", cfg.Port},
				{"user", cfg.User},
				{"password", password},
				{"database", cfg.Database},
				{"maintenance_database", cfg.MaintenanceDatabase},
				{"sslmode", cfg.SSLMode},
				{"data_dir", cfg.DataDir},
				{"connect_timeout", cfg.ConnectTimeout.Round(time.Millisecond).String()},
				{"id_column", cfg.IDColumn},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Save the effective settings, without the password, to the user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			path, err := config.Save(cfg)
			if err != nil {
				return err
			}
			ui.PrintSuccess("saved %s", path)
			return nil
		},
	})

	return cmd
}
