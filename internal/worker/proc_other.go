//go:build !unix

package worker

import "os/exec"

// isolate falls back to killing the worker process alone.
func isolate(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
