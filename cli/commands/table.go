package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// countWorkers bounds concurrent row counts in "table list --counts".
const countWorkers = 4

func newTableCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables in the selected database",
	}

	cmd.AddCommand(newTableExistsCommand(a))
	cmd.AddCommand(newTableCreateCommand(a))
	cmd.AddCommand(newTableDropCommand(a))
	cmd.AddCommand(newTableListCommand(a))
	cmd.AddCommand(newTableDescribeCommand(a))
	return cmd
}

func newTableExistsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists TABLE",
		Short: "Report whether a table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Tables().Exists(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			printExists(ok, "table", args[0])
			return nil
		},
	}
}

func newTableCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create TABLE",
		Short: "Create an empty table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Tables().Create(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("created table %s", args[0]),
				fmt.Sprintf("table %s already exists", args[0]))
			return nil
		},
	}
}

func newTableDropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop TABLE",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.confirm(fmt.Sprintf("Drop table %s and all of its rows?", args[0])); err != nil {
				return err
			}
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ok, err := m.Tables().Delete(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			ui.PrintResult(ok,
				fmt.Sprintf("dropped table %s", args[0]),
				fmt.Sprintf("table %s does not exist", args[0]))
			return nil
		},
	}
}

func newTableListCommand(a *app) *cobra.Command {
	var counts bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tables",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			names, err := m.Tables().List(ctx, "")
			if err != nil {
				return err
			}
			if !counts || len(names) == 0 {
				printNames(names, "tables")
				return nil
			}

			totals := make([]int64, len(names))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(countWorkers)
			for i, name := range names {
				i, name := i, name // per-iteration copies (pre-Go 1.22 loop semantics)
				g.Go(func() error {
					n, err := m.Rows().Count(gctx, "", name, nil, types.And)
					if err != nil {
						return fmt.Errorf("count %s: %w", name, err)
					}
					totals[i] = n
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			cells := make([][]string, len(names))
			for i, name := range names {
				cells[i] = []string{name, strconv.FormatInt(totals[i], 10)}
			}
			return ui.PrintTable([]string{"table", "rows"}, cells)
		},
	}

	cmd.Flags().BoolVar(&counts, "counts", false, "Also count the rows of each table")
	return cmd
}

func newTableDescribeCommand(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "describe TABLE",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			cols, err := m.Columns().List(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			if plain {
				return printColumns(cols)
			}
			return ui.PrintMarkdown(ui.ColumnsMarkdown(args[0], cols))
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print a plain table instead of rendered markdown")
	return cmd
}

func printColumns(cols []types.ColumnInfo) error {
	if len(cols) == 0 {
		ui.PrintInfo("no columns")
		return nil
	}
	cells := make([][]string, len(cols))
	for i, c := range cols {
		cells[i] = []string{c.Name, c.Type, strconv.FormatBool(c.Nullable), c.Comment}
	}
	return ui.PrintTable([]string{"column", "type", "nullable", "comment"}, cells)
}
