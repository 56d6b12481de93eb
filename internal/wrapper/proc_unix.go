//go:build !windows

package wrapper

import (
	"os"
	"syscall"
)

// sysProcAttr builds platform startup attributes. hideWindow only has an
// effect on Windows.
func sysProcAttr(hideWindow bool) *syscall.SysProcAttr {
	return nil
}

// terminate asks the child to shut down gracefully.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
