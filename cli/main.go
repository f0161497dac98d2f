// Command pgmanager manages databases, tables, columns and rows.
package main

import (
	"os"

	"github.com/ximilsoft/postgresql-manager/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
