// Package commands wires the scheduler's cobra CLI: a "server run"
// subcommand that starts the TCP scheduler, and a "client" command tree
// with one subcommand per wire request kind.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root "scheduler" command with its full subtree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "scheduler",
		Short:   "Network-reachable job scheduler",
		Version: version,
	}

	root.AddCommand(newServerCmd())
	root.AddCommand(newClientCmd())

	return root
}
