//go:build !windows

package isolation

import (
	"os"
	"os/exec"
	"strconv"
)

// attachPipe passes w to cmd as an extra file and returns the
// descriptor number the helper opens.
func attachPipe(cmd *exec.Cmd, w *os.File) string {
	cmd.ExtraFiles = append(cmd.ExtraFiles, w)
	return strconv.Itoa(2 + len(cmd.ExtraFiles))
}
