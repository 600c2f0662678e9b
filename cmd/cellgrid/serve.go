package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		host, port, keyPath string
		flags               viewFlags
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the viewer over SSH",
		Long: `Start an SSH server. Each connection gets its own shell shown in the
viewer, sized to the client's terminal.`,
		Example: `  cellgrid serve --port 2222
  ssh -p 2222 localhost`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := stderrLogger()
			cfg := loadConfig(logger)
			config.ApplyOverrides(flags.overrides(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.StartSSHServer(ctx, server.SSHServerConfig{
				Host:    host,
				Port:    port,
				KeyPath: keyPath,
				Config:  cfg,
				Logger:  logger,
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost", "Host to listen on")
	cmd.Flags().StringVar(&port, "port", "2222", "Port to listen on")
	cmd.Flags().StringVar(&keyPath, "key-path", "", "Host key path (defaults to ~/.ssh/cellgrid_host_key)")
	cmd.Flags().StringVarP(&flags.theme, "theme", "t", "", "Color theme to use")
	cmd.Flags().StringVar(&flags.shell, "shell", "", "Shell to run for each connection")
	cmd.Flags().IntVar(&flags.scrollback, "scrollback", 0, "Scrollback lines to keep")
	return cmd
}
