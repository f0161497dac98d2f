package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
)

func newDBCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage databases",
	}

	cmd.AddCommand(newDBExistsCommand(a))
	cmd.AddCommand(newDBCreateCommand(a))
	cmd.AddCommand(newDBDropCommand(a))
	cmd.AddCommand(newDBListCommand(a))
	return cmd
}

func newDBExistsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists NAME",
		Short: "Report whether a database exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Databases().Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printExists(ok, "database", args[0])
			return nil
		},
	}
}

func newDBCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Databases().Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("created database %s", args[0]),
				fmt.Sprintf("database %s already exists", args[0]))
			return nil
		},
	}
}

func newDBDropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop NAME",
		Short: "Drop a database, terminating its sessions first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.confirm(fmt.Sprintf("Drop database %s and all of its data?", args[0])); err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Databases().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("dropped database %s", args[0]),
				fmt.Sprintf("database %s does not exist", args[0]))
			return nil
		},
	}
}

func newDBListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List databases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			names, err := m.Databases().List(cmd.Context())
			if err != nil {
				return err
			}
			printNames(names, "databases")
			return nil
		},
	}
}

func printExists(ok bool, kind, name string) {
	if ok {
		ui.PrintSuccess("%s %s exists", kind, name)
		return
	}
	ui.PrintInfo("%s %s does not exist", kind, name)
}

func printNames(names []string, kind string) {
	if len(names) == 0 {
		ui.PrintInfo("no %s", kind)
		return
	}
	ui.PrintList(names)
}
