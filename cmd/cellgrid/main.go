// Command cellgrid renders terminal output through a cell grid.
package main

import (
	"context"
	"fmt"
	"os"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/logging"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var debugMode bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellgrid",
		Short: "Terminal cell grid renderer",
		Long: `cellgrid mirrors a terminal screen into a double-buffered grid of cell
records and draws it back out, with scrollback, mouse selection and a
blinking cursor.

Run without a subcommand to open a shell in the viewer.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), viewFlags{})
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newViewCmd(),
		newReplayCmd(),
		newServeCmd(),
		newConfigCmd(),
		newKeybindsCmd(),
	)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s (%s) built %s by %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// stderrLogger logs to stderr. Used by commands that do not own the screen.
func stderrLogger() *log.Logger {
	return logging.New(os.Stderr, debugMode)
}

// fileLogger logs to the state directory in debug mode and nowhere otherwise,
// so that log lines never land on top of a full screen interface.
func fileLogger() (*log.Logger, func()) {
	if !debugMode {
		return logging.Discard(), func() {}
	}
	path, err := xdg.StateFile("cellgrid/cellgrid.log")
	if err != nil {
		return logging.Discard(), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Discard(), func() {}
	}
	return logging.New(f, true), func() { _ = f.Close() }
}

// loadConfig loads the user configuration, falling back to defaults.
func loadConfig(logger *log.Logger) *config.Config {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "err", err)
		return config.DefaultConfig()
	}
	return cfg
}
