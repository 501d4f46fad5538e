//go:build !windows

package internal

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
