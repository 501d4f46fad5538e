//go:build windows

package internal

import (
	"os/exec"
	"syscall"
)

// CREATE_NO_WINDOW
const createNoWindow = 0x08000000

func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}
