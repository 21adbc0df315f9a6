//go:build windows

package isolation

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// attachPipe makes w inheritable by cmd and returns the handle value the
// helper opens.
func attachPipe(cmd *exec.Cmd, w *os.File) string {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	h := syscall.Handle(w.Fd())
	cmd.SysProcAttr.AdditionalInheritedHandles = append(cmd.SysProcAttr.AdditionalInheritedHandles, h)
	return strconv.FormatUint(uint64(h), 10)
}
