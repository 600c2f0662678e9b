// Package server serves the viewer over SSH.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/log/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/Gaurav-Gosain/cellgrid/internal/config"
	"github.com/Gaurav-Gosain/cellgrid/internal/session"
	"github.com/charmbracelet/ssh"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	Host    string
	Port    string
	KeyPath string
	// Config is the viewer configuration shared by every connection.
	Config *config.Config
	Logger *log.Logger
}

// DefaultKeyPath returns the host key used when none is configured.
func DefaultKeyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "cellgrid_host_key"), nil
}

// StartSSHServer runs the SSH server until ctx is cancelled. Each session
// gets its own shell, screen and grid.
func StartSSHServer(ctx context.Context, cfg SSHServerConfig) error {
	if cfg.KeyPath == "" {
		path, err := DefaultKeyPath()
		if err != nil {
			return err
		}
		cfg.KeyPath = path
	}
	if cfg.Config == nil {
		cfg.Config = config.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(cfg.KeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler(cfg)),
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		cfg.Logger.Info("starting SSH server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("SSH server error: %w", err)
	case <-ctx.Done():
	}

	cfg.Logger.Info("shutting down SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// teaHandler creates a viewer for each SSH session with a PTY.
func teaHandler(cfg SSHServerConfig) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, active := s.Pty()
		if !active {
			wish.Fatalln(s, "cellgrid requires an interactive terminal")
			return nil, nil
		}

		logger := cfg.Logger.With("user", s.User(), "remote", s.RemoteAddr().String())
		// Copy so a live reload in one session does not leak into another.
		sessionCfg := *cfg.Config
		m, err := session.New(session.Options{
			Config:  &sessionCfg,
			Logger:  logger,
			Environ: append(s.Environ(), "TERM="+pty.Term),
			Width:   pty.Window.Width,
			Height:  pty.Window.Height,
		})
		if err != nil {
			logger.Error("creating viewer", "err", err)
			wish.Fatalln(s, "failed to create viewer")
			return nil, nil
		}
		if err := m.StartShell(); err != nil {
			logger.Error("starting shell", "err", err)
			_ = m.Close()
			wish.Fatalln(s, "failed to start shell")
			return nil, nil
		}

		go func() {
			<-s.Context().Done()
			_ = m.Close()
		}()

		return m, []tea.ProgramOption{tea.WithFPS(session.FPS)}
	}
}
