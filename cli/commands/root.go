// Package commands implements the pgmanager command tree.
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/config"
	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/cli/internal/version"
	"github.com/ximilsoft/postgresql-manager/internal/debug"
	"github.com/ximilsoft/postgresql-manager/runtime/client"
)

// app carries state shared by every subcommand.
type app struct {
	configFile string
	yes        bool

	// newManager is replaced in tests.
	newManager func(cfg client.Config, opts ...client.Option) (*client.Manager, error)
}

// manager loads the configuration visible to cmd and builds a Manager.
func (a *app) manager(cmd *cobra.Command) (*client.Manager, error) {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	newManager := a.newManager
	if newManager == nil {
		newManager = client.New
	}
	return newManager(cfg, client.WithLogger(debug.New(cfg.Debug, ui.Err)))
}

// confirm asks before a destructive action unless --yes was given.
func (a *app) confirm(message string) error {
	if a.yes {
		return nil
	}
	ok, err := ui.Confirm(message)
	if err != nil {
		return err
	}
	if !ok {
		return ui.ErrAborted
	}
	return nil
}

// NewRootCommand creates the pgmanager root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgmanager",
		Short: "Manage databases, tables, columns and rows",
		Long: `pgmanager creates, inspects and drops databases, tables, columns and rows
on PostgreSQL, MySQL and SQLite.

Connection settings are read from flags, PGMANAGER_* environment variables,
.env files and a .pgmanager.yaml config file, in that order of precedence.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: .pgmanager.yaml in ., $HOME or $HOME/.config/pgmanager)")
	flags.BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")
	flags.String("provider", "postgresql", "Database provider: postgresql, mysql or sqlite")
	flags.String("host", "localhost", "Server host")
	flags.String("port", "", "Server port (default: 5432 for postgresql, 3306 for mysql)")
	flags.StringP("user", "U", "postgres", "Server user")
	flags.String("password", "", "Server password")
	flags.StringP("database", "d", "", "Database to operate on")
	flags.String("maintenance-database", "", "Database used to create and drop databases")
	flags.String("sslmode", "disable", "PostgreSQL sslmode")
	flags.String("data-dir", ".", "Directory holding SQLite database files")
	flags.Duration("connect-timeout", client.DefaultConnectTimeout, "Connection timeout")
	flags.String("id-column", client.DefaultIDColumn, "Column identifying rows")
	flags.Bool("allow-empty-password", false, "Accept an empty password")
	flags.Bool("debug", false, "Log every statement")

	cmd.AddCommand(newDBCommand(a))
	cmd.AddCommand(newTableCommand(a))
	cmd.AddCommand(newColumnCommand(a))
	cmd.AddCommand(newRowCommand(a))
	cmd.AddCommand(newSeedCommand(a))
	cmd.AddCommand(newConfigCommand(a))
	cmd.AddCommand(newVersionCommand(a))

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ui.ErrAborted):
		ui.PrintWarning("aborted")
	default:
		ui.PrintError("%v", err)
	}
	return err
}
