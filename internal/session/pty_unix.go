//go:build !windows

package session

import (
	"os/exec"
	"syscall"
)

// configurePTYCommand makes the PTY the controlling terminal of the shell's
// new session. Ctty is the child's stdin, which xpty sets to the PTY.
func configurePTYCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}
}
