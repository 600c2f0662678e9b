package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/Gaurav-Gosain/cellgrid/internal/pool"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/xpty"
)

// Shell is a child shell running on a pseudo terminal.
type Shell struct {
	pty xpty.Pty
	cmd *exec.Cmd

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// StartShell starts shell (DetectShell when empty) on a cols x rows PTY with
// env appended to the current environment.
func StartShell(shell string, cols, rows int, env []string) (*Shell, error) {
	if shell == "" {
		shell = DetectShell()
	}
	cols, rows = max(cols, 1), max(rows, 1)

	// #nosec G204 - the shell is user configured
	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), env...)

	p, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("creating pty: %w", err)
	}
	configurePTYCommand(cmd)
	if err := p.Start(cmd); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("starting %s: %w", shell, err)
	}
	// Some PTYs only accept a size once the process runs.
	_ = p.Resize(cols, rows)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Shell{pty: p, cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go func() {
		_ = xpty.WaitProcess(ctx, cmd)
		close(s.done)
	}()
	return s, nil
}

// Write sends input to the shell.
func (s *Shell) Write(p []byte) (int, error) {
	return s.pty.Write(p)
}

// Pump copies the shell's output to w until the PTY closes.
func (s *Shell) Pump(w io.Writer) error {
	bufPtr := pool.GetByteSlice()
	defer pool.PutByteSlice(bufPtr)
	buf := *bufPtr

	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || strings.Contains(err.Error(), "input/output error") {
				return nil
			}
			return err
		}
	}
}

// Resize changes the PTY size.
func (s *Shell) Resize(cols, rows int) error {
	return s.pty.Resize(max(cols, 1), max(rows, 1))
}

// Done is closed when the shell process exits.
func (s *Shell) Done() <-chan struct{} {
	return s.done
}

// Close kills the shell and releases the PTY.
func (s *Shell) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		err = s.pty.Close()
	})
	return err
}

// DetectShell returns $SHELL or the first shell found on the system.
func DetectShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		for _, shell := range []string{"pwsh.exe", "powershell.exe", "cmd.exe"} {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "cmd.exe"
	}

	for _, shell := range []string{"/bin/bash", "/bin/zsh", "/bin/fish", "/bin/sh"} {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// TerminalEnv returns the TERM and COLORTERM values to advertise to a shell
// whose output is shown on a terminal with the given profile. parentTerm is
// kept when it already describes a capable terminal.
func TerminalEnv(profile colorprofile.Profile, parentTerm string) (termType, colorTerm string) {
	switch profile {
	case colorprofile.TrueColor:
		if strings.Contains(parentTerm, "256color") || strings.Contains(parentTerm, "truecolor") ||
			parentTerm == "xterm-direct" || parentTerm == "kitty" || strings.HasPrefix(parentTerm, "kitty-") {
			return parentTerm, "truecolor"
		}
		return "xterm-256color", "truecolor"
	case colorprofile.ANSI256:
		switch {
		case strings.Contains(parentTerm, "256color"):
			return parentTerm, ""
		case strings.HasPrefix(parentTerm, "screen"):
			return "screen-256color", ""
		case strings.HasPrefix(parentTerm, "tmux"):
			return "tmux-256color", ""
		}
		return "xterm-256color", ""
	case colorprofile.ANSI:
		if parentTerm != "" && parentTerm != "dumb" {
			return parentTerm, ""
		}
		return "xterm", ""
	case colorprofile.Ascii, colorprofile.NoTTY:
		return "dumb", ""
	}
	return "xterm-256color", ""
}
