//go:build windows

package session

import (
	"os/exec"
)

// configurePTYCommand is a no-op; ConPTY attaches the console itself.
func configurePTYCommand(cmd *exec.Cmd) {}
