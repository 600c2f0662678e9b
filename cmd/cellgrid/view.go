package main

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type viewFlags struct {
	theme       string
	shell       string
	scrollback  int
	cursorShape string
}

func (f viewFlags) overrides() config.Overrides {
	return config.Overrides{
		ThemeName:       f.theme,
		Shell:           f.shell,
		ScrollbackLines: f.scrollback,
		CursorShape:     f.cursorShape,
	}
}

func newViewCmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open a shell in the viewer",
		Long: `Open the configured shell inside the viewer.

Shift+PgUp/PgDown browse the scrollback, dragging selects text and
double/triple clicks select words and lines. The config file is watched
and colour changes apply live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVarP(&flags.theme, "theme", "t", "", "Color theme to use")
	cmd.Flags().StringVar(&flags.shell, "shell", "", "Shell to run (defaults to $SHELL)")
	cmd.Flags().IntVar(&flags.scrollback, "scrollback", 0, "Scrollback lines to keep")
	cmd.Flags().StringVar(&flags.cursorShape, "cursor-shape", "", "Cursor shape: block, beam or underline")
	return cmd
}

func runView(ctx context.Context, flags viewFlags) error {
	logger, closeLog := fileLogger()
	defer closeLog()

	cfg := loadConfig(logger)
	config.ApplyOverrides(flags.overrides(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	width, height := 80, 24
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
	}

	m, err := session.New(session.Options{
		Config: cfg,
		Logger: logger,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.StartShell(); err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}
	if path, err := config.GetConfigPath(); err == nil {
		if err := m.WatchConfig(path); err != nil {
			logger.Warn("config watch disabled", "err", err)
		}
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithFPS(session.FPS))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
