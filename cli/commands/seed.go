package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/seed"
	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/cli/internal/watch"
	"github.com/ximilsoft/postgresql-manager/runtime/client"
)

// SeedFs is the filesystem seed files are read from.
var SeedFs = afero.NewOsFs()

func newSeedCommand(a *app) *cobra.Command {
	var bestEffort bool
	var watchFile bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Create a table, its columns and rows from a YAML file",
		Long: `Create a table, its columns and rows from a YAML file:

  database: testdb     # optional, defaults to --database
  table: users
  columns:
    - {name: id, type: INT, is_primary: true}
    - {name: name, type: VARCHAR}
  rows:
    - {id: 1, name: Alice}

The table and columns are created when missing. Rows are inserted in one
transaction unless --best-effort is given. With --watch the file is applied
again every time it changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			apply := func(ctx context.Context) error {
				return applySeedFile(ctx, m, args[0], bestEffort)
			}
			if !watchFile {
				return apply(cmd.Context())
			}

			w, err := watch.NewWatcher(args[0], debounce, apply, func(err error) {
				ui.PrintError("%v", err)
			})
			if err != nil {
				return err
			}
			ui.PrintInfo("watching %s, press Ctrl+C to stop", args[0])
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "Insert rows one by one, keeping the ones that succeed")
	cmd.Flags().BoolVar(&watchFile, "watch", false, "Apply the file again whenever it changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Wait this long after a change before applying")
	return cmd
}

func applySeedFile(ctx context.Context, m *client.Manager, path string, bestEffort bool) error {
	f, err := seed.Load(SeedFs, path)
	if err != nil {
		return err
	}
	return applySeed(ctx, m, f, bestEffort)
}

// applySeed creates the table and the missing columns of f, then inserts its rows.
func applySeed(ctx context.Context, m *client.Manager, f *seed.File, bestEffort bool) error {
	created, err := m.Tables().Create(ctx, f.Database, f.Table)
	if err != nil {
		return err
	}
	if created {
		ui.PrintSuccess("created table %s", f.Table)
	}

	if len(f.Columns) > 0 {
		res, err := m.Columns().Create(ctx, f.Database, f.Table, f.Columns)
		// Columns left from an earlier run are expected when re-seeding.
		fresh := res.Skipped[:0:0]
		for _, s := range res.Skipped {
			if !errors.Is(s.Reason, client.ErrAlreadyExists) {
				fresh = append(fresh, s)
			}
		}
		res.Skipped = fresh
		printColumnsResult(f.Table, res)
		if err != nil {
			return err
		}
	}

	if len(f.Rows) == 0 {
		return nil
	}
	spinner, _ := ui.PrintSpinner(fmt.Sprintf("inserting %d row(s) into %s", len(f.Rows), f.Table))
	res, err := m.Rows().Create(ctx, f.Database, f.Table, f.Payload(), client.InsertOptions{BestEffort: bestEffort})
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}
	printInsertResult(f.Table, res)
	return nil
}
