package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the "alexterm status" subcommand.
func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent health and local session state",
		Long:  "Queries the ALEX health endpoint and reports whether a terminal session\nis active according to the marker file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if h, err := newAgentClient(cfg).Health(cmd.Context()); err != nil {
				fmt.Fprintf(w, "ALEX is offline (%v)\n", err)
			} else {
				fmt.Fprintln(w, h.Summary())
			}

			status, pid, err := MarkerStatus(paths.MarkerPath)
			if err != nil {
				return err
			}
			switch status {
			case StatusRunning:
				fmt.Fprintf(w, "Terminal session: running (PID %d)\n", pid)
			case StatusStale:
				fmt.Fprintf(w, "Terminal session: stale marker (PID %d not running)\n", pid)
			default:
				fmt.Fprintln(w, "Terminal session: stopped")
			}
			return nil
		},
	}
}
