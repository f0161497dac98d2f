package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/filter"
	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/runtime/client"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

func newRowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "row",
		Short: "Query and modify the rows of a table",
		Long: `Query and modify the rows of a table.

Filters are written as conditions joined by AND or OR, e.g.

  --where "age >= 18 AND name != 'Bob'"

Supported operators: = != < <= > >=. AND and OR cannot be mixed.`,
	}

	cmd.AddCommand(newRowListCommand(a))
	cmd.AddCommand(newRowExistsCommand(a))
	cmd.AddCommand(newRowCountCommand(a))
	cmd.AddCommand(newRowInsertCommand(a))
	cmd.AddCommand(newRowUpdateCommand(a))
	cmd.AddCommand(newRowDeleteCommand(a))
	return cmd
}

func newRowListCommand(a *app) *cobra.Command {
	var where string
	var limit int

	cmd := &cobra.Command{
		Use:     "list TABLE",
		Aliases: []string{"ls"},
		Short:   "List rows",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, joiner, err := filter.Parse(where)
			if err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			rows, err := m.Rows().List(cmd.Context(), "", args[0], client.ListOptions{
				Where:  pred,
				Joiner: joiner,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			return ui.PrintRows(rows)
		},
	}

	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression")
	cmd.Flags().IntVarP(&limit, "limit", "n", client.DefaultLimit, "Maximum number of rows")
	return cmd
}

func newRowExistsCommand(a *app) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "exists TABLE",
		Short: "Report whether any row matches a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, joiner, err := filter.Parse(where)
			if err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Rows().Exists(cmd.Context(), "", args[0], pred, joiner)
			if err != nil {
				return err
			}
			if ok {
				ui.PrintSuccess("a matching row exists in %s", args[0])
			} else {
				ui.PrintInfo("no matching row in %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression")
	return cmd
}

func newRowCountCommand(a *app) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "count TABLE",
		Short: "Count rows matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, joiner, err := filter.Parse(where)
			if err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			n, err := m.Rows().Count(cmd.Context(), "", args[0], pred, joiner)
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression")
	return cmd
}

func newRowInsertCommand(a *app) *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:     "insert TABLE",
		Short:   "Insert one row",
		Example: `  pgmanager row insert users --set id=1 --set name='Alice' --set active=true`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := filter.ParseAssignments(set)
			if err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			res, err := m.Rows().Create(cmd.Context(), "", args[0], []types.Row{row}, client.InsertOptions{})
			if err != nil {
				return err
			}
			printInsertResult(args[0], res)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "Column value as column=value (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newRowUpdateCommand(a *app) *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "update TABLE ID",
		Short: "Update the row with the given id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := filter.ParseAssignments(set)
			if err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Rows().Update(cmd.Context(), "", args[0], parseID(args[1]), values)
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("updated %s %s", args[0], args[1]),
				fmt.Sprintf("no row %s in %s", args[1], args[0]))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&set, "set", "s", nil, "New value as column=value (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newRowDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TABLE ID",
		Short: "Delete the row with the given id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.confirm(fmt.Sprintf("Delete row %s from %s?", args[1], args[0])); err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Rows().Delete(cmd.Context(), "", args[0], parseID(args[1]))
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("deleted %s %s", args[0], args[1]),
				fmt.Sprintf("no row %s in %s", args[1], args[0]))
			return nil
		},
	}
}

// parseID keeps integer ids numeric so they compare correctly on every
// provider; anything else is passed as text.
func parseID(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func printInsertResult(table string, res types.InsertResult) {
	if n := res.Inserted(); n > 0 {
		ui.PrintSuccess("inserted %d row(s) into %s", n, table)
		for _, id := range res.IDs {
			if id != nil {
				ui.PrintInfo("id %v", id)
			}
		}
	}
	for _, f := range res.Failed {
		ui.PrintError("row %d: %v", f.Index, f.Err)
	}
}
