package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

func newColumnCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage the columns of a table",
	}

	cmd.AddCommand(newColumnExistsCommand(a))
	cmd.AddCommand(newColumnAddCommand(a))
	cmd.AddCommand(newColumnDropCommand(a))
	cmd.AddCommand(newColumnListCommand(a))
	cmd.AddCommand(newColumnTypesCommand())
	return cmd
}

func newColumnExistsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists TABLE COLUMN",
		Short: "Report whether a column exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Columns().Exists(cmd.Context(), "", args[0], args[1])
			if err != nil {
				return err
			}
			printExists(ok, "column", args[0]+"."+args[1])
			return nil
		},
	}
}

func newColumnAddCommand(a *app) *cobra.Command {
	var def types.ColumnDefinition

	cmd := &cobra.Command{
		Use:   "add TABLE NAME TYPE",
		Short: "Add a column to a table",
		Long: `Add a column to a table. TYPE is one of the types listed by
"pgmanager column types", e.g. VARCHAR, INTEGER or TIMESTAMPTZ.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			def.Name = args[1]
			def.Type = types.ColumnType(args[2])

			res, err := m.Columns().Create(cmd.Context(), "", args[0], []types.ColumnDefinition{def})
			printColumnsResult(args[0], res)
			return err
		},
	}

	cmd.Flags().BoolVar(&def.NotNull, "not-null", false, "Reject NULL values")
	cmd.Flags().BoolVar(&def.Primary, "primary", false, "Make the column the primary key")
	cmd.Flags().StringVar(&def.Comment, "comment", "", "Column comment")
	return cmd
}

func newColumnDropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop TABLE COLUMN",
		Short: "Drop a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0] + "." + args[1]
			if err := a.confirm(fmt.Sprintf("Drop column %s and its data?", target)); err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Columns().Delete(cmd.Context(), "", args[0], args[1])
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("dropped column %s", target),
				fmt.Sprintf("column %s does not exist", target))
			return nil
		},
	}
}

func newColumnListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list TABLE",
		Aliases: []string{"ls"},
		Short:   "List the columns of a table",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			cols, err := m.Columns().List(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			return printColumns(cols)
		},
	}
}

func newColumnTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the column types accepted by \"column add\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0)
			for _, t := range types.ValidColumnTypes() {
				names = append(names, string(t))
			}
			slices.Sort(names)
			ui.PrintList(names)
			return nil
		},
	}
}

// printColumnsResult reports added, skipped and failed columns.
func printColumnsResult(table string, res types.ColumnsResult) {
	if len(res.Added) > 0 {
		ui.PrintSuccess("added %s to %s", strings.Join(res.Added, ", "), table)
	}
	for _, s := range res.Skipped {
		ui.PrintWarning("skipped %s: %v", s.Column.Name, s.Reason)
	}
	for _, f := range res.Failed {
		ui.PrintError("failed %s: %v", f.Column.Name, f.Reason)
	}
	if res.Partial() {
		ui.PrintInfo("%d of %d column(s) added to %s", len(res.Added), res.Requested(), table)
	}
}
