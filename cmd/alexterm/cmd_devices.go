package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alexterm/pkg/voice"
)

// newDevicesCmd creates the "alexterm devices" subcommand.
func newDevicesCmd(opts *globalOptions) *cobra.Command {
	return newDevicesCmdWithRunner(opts, &voice.ExecRunner{})
}

func newDevicesCmdWithRunner(opts *globalOptions, runner voice.Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Show the audio devices a session would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			ctx := cmd.Context()

			dev, fellBack := voice.ResolveInput(ctx, runner, inputDevice(cfg))
			if fellBack {
				fmt.Fprintf(w, "Input:  %s (configured %s not found)\n", dev, cfg.Voice.InputDevice)
			} else {
				fmt.Fprintf(w, "Input:  %s\n", dev)
			}

			sink := voice.ResolveSink(ctx, runner, voice.OutputSelector{Sink: cfg.Voice.OutputSink})
			if sink == "" {
				sink = "default"
			}
			fmt.Fprintf(w, "Output: %s\n", sink)

			sinks, err := voice.ListSinks(ctx, runner)
			if err != nil {
				fmt.Fprintf(w, "Sinks:  unavailable (%v)\n", err)
				return nil
			}
			for _, s := range sinks {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", s.Index, s.Name, s.Driver)
			}
			return nil
		},
	}
}
