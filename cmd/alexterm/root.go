package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"alexterm/internal/appversion"
	"alexterm/internal/config"
	"alexterm/internal/logging"
	"alexterm/pkg/voice"
)

// globalOptions are flags shared by every subcommand.
type globalOptions struct {
	configPath string
}

// newRootCmd creates the root alexterm command with all subcommands attached.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var lineMode bool

	cmd := &cobra.Command{
		Use:           "alexterm",
		Short:         "Terminal client for the ALEX assistant",
		Long:          "alexterm is a chat client for the ALEX assistant with push-to-talk\nvoice input, spoken replies and proactive notifications.",
		Version:       fmt.Sprintf("alexterm %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, opts, lineMode)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $ALEX_HOME/terminal.toml)")
	cmd.Flags().BoolVar(&lineMode, "line", false, "use the plain line interface even on a terminal")

	cmd.AddCommand(
		newSendCmd(opts),
		newStatusCmd(opts),
		newDevicesCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig resolves paths, loads ~/.env and reads the configuration.
func loadConfig(opts *globalOptions) (*Paths, *config.Config, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, nil, err
	}
	if err := config.LoadEnvFile(paths.EnvFile); err != nil {
		return nil, nil, err
	}
	path := opts.configPath
	if path == "" {
		path = paths.ConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return paths, cfg, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runInteractive runs one chat session. The marker file exists for exactly
// the lifetime of the session.
func runInteractive(cmd *cobra.Command, opts *globalOptions, lineMode bool) error {
	paths, cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(paths.Home, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", paths.Home, err)
	}

	useTUI := !lineMode && isTerminal(os.Stdin) && isTerminal(os.Stdout)

	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = paths.LogPath
	}
	// The TUI owns the screen, so logs only go to the file there.
	var console io.Writer
	if !useTUI {
		console = cmd.ErrOrStderr()
	}
	closeLog, err := logging.Init(cfg.Logging.Level, logFile, console)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // best effort on exit

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("generate conversation id: %w", err)
	}

	if err := WriteMarker(paths.MarkerPath, os.Getpid()); err != nil {
		return err
	}
	ctx, cleanup := SetupSignalHandler(cmd.Context(), paths.MarkerPath)
	defer cleanup()

	slog.Info("session starting", "conversation_id", id.String(), "api", cfg.Agent.BaseURL, "tui", useTUI)
	s := newSession(ctx, cfg, paths, id.String(), &voice.ExecRunner{})

	ui := runTUI
	if !useTUI {
		in, out := cmd.InOrStdin(), cmd.OutOrStdout()
		ui = func(ctx context.Context, v sessionView) error {
			return runLines(ctx, v, in, out)
		}
	}
	err = s.run(ctx, ui)
	slog.Info("session ended", "conversation_id", id.String())
	return err
}
