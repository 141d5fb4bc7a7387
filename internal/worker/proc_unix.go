//go:build unix

package worker

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolate puts the worker in its own process group and makes cancellation
// kill the whole group, converter children included.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
