// Package cli implements the passwords-repair command line.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwords-repair",
		Short: "Repair stored password vault revisions",
		Long: `passwords-repair heals revisions left behind by historical schema and
encryption changes: empty or legacy custom fields, stale security status,
dangling folders, missing server-side encryption and orphaned revisions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCommand())

	return cmd
}
