//go:build windows

package wrapper

import (
	"os"
	"syscall"
)

// sysProcAttr builds platform startup attributes. HideWindow keeps the
// child from flashing a console window.
func sysProcAttr(hideWindow bool) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{HideWindow: hideWindow}
}

// terminate stops the child. Windows has no graceful terminate signal for
// console-less children, so this is a forced termination.
func terminate(p *os.Process) error {
	return p.Kill()
}
