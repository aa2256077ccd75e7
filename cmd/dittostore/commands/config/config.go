// Package config implements the `dittostore config` command group for
// inspecting and validating configuration files.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the `config` command group, added to the root command.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
	Long: `Inspect and validate DittoStore configuration files.

Use "dittostore config [command] --help" for more information about a command.`,
}

func init() {
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(validateCmd)
}
