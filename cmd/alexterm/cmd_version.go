package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alexterm/internal/appversion"
)

// newVersionCmd creates the "alexterm version" subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "alexterm %s\n", appversion.String())
			return nil
		},
	}
}
