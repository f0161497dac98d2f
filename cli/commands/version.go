package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ximilsoft/postgresql-manager/cli/internal/ui"
	"github.com/ximilsoft/postgresql-manager/cli/internal/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(ui.Out, version.Get().FullString())
			if !server {
				return nil
			}

			m, err := a.manager(cmd)
			if err != nil {
				return err
			}
			v, err := m.ServerVersion(cmd.Context())
			if err != nil {
				return err
			}
			ok, minimum, err := version.CheckServer(m.Provider(), v)
			if err != nil {
				return err
			}
			if ok {
				ui.PrintSuccess("%s server %s", m.Provider(), v)
			} else {
				ui.PrintWarning("%s server %s is older than the supported minimum %s", m.Provider(), v, minimum)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "Also report the database server version")
	return cmd
}
