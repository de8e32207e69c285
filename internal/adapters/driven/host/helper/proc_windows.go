//go:build windows

package helper

import (
	"os"
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// processAlive reports whether pid names a live process.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

// detach hides the helper's console window.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow, HideWindow: true}
}
