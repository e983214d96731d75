//go:build windows

package runner

import "os/exec"

func setProcGroup(cmd *exec.Cmd) {}

// killProcessGroup only kills the direct child on Windows.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
