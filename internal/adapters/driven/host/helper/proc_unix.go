//go:build !windows

package helper

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// processAlive reports whether pid names a live process.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// detach puts the helper in its own process group so terminal signals
// sent to the CLI do not end idle sessions.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
