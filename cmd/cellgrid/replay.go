package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/grid"
	"github.com/Gaurav-Gosain/cellgrid/internal/logging"
	"github.com/Gaurav-Gosain/cellgrid/internal/render"
	"github.com/Gaurav-Gosain/cellgrid/internal/scroll"
	"github.com/Gaurav-Gosain/cellgrid/internal/session"
	"github.com/Gaurav-Gosain/cellgrid/internal/sprites"
	"github.com/Gaurav-Gosain/cellgrid/internal/theme"
	"github.com/Gaurav-Gosain/cellgrid/internal/vt"
	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type replayOptions struct {
	cols, rows int
	scroll     string
	selection  string
	cursor     bool
	plain      bool
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Render a recorded terminal stream as one frame",
		Long: `Feed a file of terminal output through the grid and print the frame it
produces. Use "-" to read standard input.

The selected text, if any, is written to standard error.`,
		Example: `  cellgrid replay session.log --scroll page
  cellgrid replay typescript --cols 80 --rows 24 --select 0,0:20,2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			if opts.cols <= 0 || opts.rows <= 0 {
				w, h := terminalSize()
				if opts.cols <= 0 {
					opts.cols = w
				}
				if opts.rows <= 0 {
					opts.rows = h
				}
			}
			logger := stderrLogger()
			cfg := loadConfig(logger)
			if err := theme.Initialize(cfg.Appearance.Theme); err != nil {
				logger.Warn("theme", "err", err)
			}
			out := colorprofile.NewWriter(os.Stdout, os.Environ())
			return replay(data, opts, cfg, logger, out, os.Stderr)
		},
	}
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "Grid width in cells (defaults to the terminal width)")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "Grid height in cells (defaults to the terminal height)")
	cmd.Flags().StringVar(&opts.scroll, "scroll", "", `Scroll back before rendering: a row count, "line", "page" or "full"`)
	cmd.Flags().StringVar(&opts.selection, "select", "", "Select cells x0,y0:x1,y1 before rendering")
	cmd.Flags().BoolVar(&opts.cursor, "cursor", false, "Draw the cursor")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print the frame without styling")
	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func terminalSize() (int, int) {
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			return w, h
		}
	}
	return 80, 24
}

// replay feeds data through a fresh screen and grid and writes one frame to
// out. Selected text goes to sel.
func replay(data []byte, opts replayOptions, cfg *config.Config, logger *log.Logger, out, sel io.Writer) error {
	screen := vt.NewScreen(opts.cols, opts.rows, cfg.Terminal.ScrollbackLines)
	screen.SetLogger(logging.Printf{Logger: logger})
	if _, err := screen.Write(normalizeNewlines(data)); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	atlas := sprites.New(0, 0)
	g, err := grid.New(screen, atlas, session.GridOptions(cfg, logger))
	if err != nil {
		return err
	}
	g.Resize(grid.WindowGeometry{
		XNum:       opts.cols,
		YNum:       opts.rows,
		CellWidth:  cfg.Display.CellWidth,
		CellHeight: cfg.Display.CellHeight,
	})
	g.UpdateCellData(true)

	if opts.scroll != "" {
		amount, err := scroll.ParseAmount(opts.scroll)
		if err != nil {
			return err
		}
		g.Scroll(amount, true)
	}
	if opts.selection != "" {
		x0, y0, x1, y1, err := parseSelection(opts.selection)
		if err != nil {
			return err
		}
		g.Select(x0, y0, x1, y1)
	}

	prog := render.NewTextProgram(atlas)
	geom, ok := g.PrepareForRender(atlas)
	if !ok {
		return fmt.Errorf("grid has no cells to render")
	}
	g.RenderCells(geom, prog, atlas)
	if opts.cursor {
		g.RenderCursor(geom, prog)
	}

	frame := prog.Frame()
	if opts.plain {
		frame = prog.PlainText()
	}
	if _, err := fmt.Fprintln(out, frame); err != nil {
		return err
	}
	if text := g.TextForSelection(); text != "" {
		if _, err := fmt.Fprintln(sel, text); err != nil {
			return err
		}
	}
	logger.Debug("replayed", "bytes", len(data), "cols", opts.cols, "rows", opts.rows, "scrolled", g.ScrolledBy())
	return nil
}

// normalizeNewlines turns bare line feeds into CRLF, the way a tty's output
// processing would have.
func normalizeNewlines(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))
}

// parseSelection parses "x0,y0:x1,y1".
func parseSelection(s string) (x0, y0, x1, y1 int, err error) {
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("invalid selection %q: want x0,y0:x1,y1", s)
	}
	if x0, y0, err = parsePoint(start); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid selection %q: %w", s, err)
	}
	if x1, y1, err = parsePoint(end); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid selection %q: %w", s, err)
	}
	return x0, y0, x1, y1, nil
}

func parsePoint(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("point %q has no comma", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, err
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("point %q is negative", s)
	}
	return x, y, nil
}
