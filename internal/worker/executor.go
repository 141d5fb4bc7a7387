package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

const stderrLimit = 8 << 10

// ProcessExecutor runs each job in a fresh worker process so that a hung or
// crashing converter can be killed without touching the supervisor.
type ProcessExecutor struct {
	// Path is the binary to start; empty means os.Executable().
	Path string
	// Args precede nothing else on the command line; nil means ["worker"].
	Args []string
	// Env is appended to the supervisor's environment.
	Env      []string
	ForceOCR bool
	Markdown bool
	Logger   *slog.Logger
	// WaitDelay bounds how long to wait for pipes after a kill.
	WaitDelay time.Duration
}

// Execute runs job in a worker process staging into stagingDir. The returned
// error is non-nil only when ctx was cancelled by its parent, which aborts
// the run; a deadline on ctx is the job's timeout and yields a timeout
// response with stagingDir removed.
func (e *ProcessExecutor) Execute(ctx context.Context, job pool.Job, stagingDir string) (Response, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job_id", job.ID.String(), "source", job.SourcePath)

	path := e.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return failed(common.KindWorkerCrashed, fmt.Sprintf("locate executable: %v", err)), nil
		}
		path = exe
	}
	args := e.Args
	if args == nil {
		args = []string{"worker"}
	}

	req := Request{
		JobID:      job.ID.String(),
		Source:     job.SourcePath,
		Device:     string(job.Device),
		ForceOCR:   e.ForceOCR,
		StagingDir: stagingDir,
		Stem:       Stem(job.SourcePath),
		Markdown:   e.Markdown,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return failed(common.KindWorkerCrashed, err.Error()), nil
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 2 * time.Second
	}
	isolate(cmd)

	start := time.Now()
	runErr := cmd.Run()
	dur := time.Since(start)

	if runErr != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			removeStaging(stagingDir, logger)
			logger.Warn("worker.timeout", "duration_ms", dur.Milliseconds())
			return Response{
				Status:       constants.JobStatusTimeout,
				ErrorKind:    common.KindTimeout,
				ErrorMessage: fmt.Sprintf("conversion exceeded %s", deadlineBudget(ctx, start)),
			}, nil
		case ctx.Err() != nil:
			removeStaging(stagingDir, logger)
			return Response{}, ctx.Err()
		}
	}

	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil || !resp.Status.Terminal() {
		msg := "worker exited without a response"
		if runErr != nil {
			msg = fmt.Sprintf("worker exited: %v", runErr)
		}
		if tail := strings.TrimSpace(converter.Truncate(stderr.String(), stderrLimit)); tail != "" {
			logger.Error("worker.crashed", "error", runErr, "stderr", tail)
		}
		removeStaging(stagingDir, logger)
		return failed(common.KindWorkerCrashed, msg), nil
	}

	logger.Debug("worker.exit",
		"status", resp.Status,
		"duration_ms", dur.Milliseconds(),
		"stderr", converter.Truncate(stderr.String(), stderrLimit),
	)
	if resp.Status != constants.JobStatusSuccess {
		removeStaging(stagingDir, logger)
	}
	return resp, nil
}

// Stem is the source file name without its extension.
func Stem(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func deadlineBudget(ctx context.Context, start time.Time) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return dl.Sub(start).Round(time.Second)
	}
	return time.Since(start).Round(time.Second)
}

func removeStaging(dir string, logger *slog.Logger) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("worker.staging.cleanup_failed", "staging_dir", dir, "error", err)
	}
}
