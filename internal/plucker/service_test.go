package plucker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/ledger"
	"github.com/joseph-ayodele/pdfplucker/internal/metrics"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
	"github.com/joseph-ayodele/pdfplucker/internal/worker"
)

func executor(t *testing.T) *worker.ProcessExecutor {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return &worker.ProcessExecutor{
		Path:      exe,
		Args:      []string{},
		Env:       []string{helperEnv + "=1"},
		Markdown:  true,
		WaitDelay: 500 * time.Millisecond,
	}
}

func sourceDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.7"), 0o644))
	}
	return dir
}

func config(source, output string) *common.Config {
	cfg := common.DefaultConfig()
	cfg.Run.Source = source
	cfg.Run.Output = output
	cfg.Run.Workers = 2
	cfg.Run.Timeout = 20 * time.Second
	cfg.Run.Markdown = true
	return cfg
}

type recordingObserver struct {
	started  int
	single   bool
	finished []pool.Outcome
	done     bool
}

func (r *recordingObserver) RunStarted(total int, single bool) { r.started, r.single = total, single }
func (r *recordingObserver) JobFinished(o pool.Outcome)        { r.finished = append(r.finished, o) }
func (r *recordingObserver) RunFinished()                      { r.done = true }

func TestRun_BatchWithOneCorruptDocument(t *testing.T) {
	src := sourceDir(t, "a.pdf", "b_corrupt.pdf", "c.pdf")
	out := filepath.Join(t.TempDir(), "results")
	obs := &recordingObserver{}

	res, err := NewService(config(src, out), executor(t), nil, WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	m := res.Metrics
	assert.False(t, res.Single)
	assert.Equal(t, 3, m.TotalDocs)
	assert.Equal(t, 2, m.ProcessedDocs)
	assert.Equal(t, 1, m.FailedDocs)
	assert.Equal(t, 0, m.TimeoutDocs)
	assert.Equal(t, 66.67, m.SuccessRate)
	require.Len(t, m.Fails, 1)
	assert.Equal(t, filepath.Join(src, "b_corrupt.pdf"), m.Fails[0].File)
	assert.Equal(t, common.CodeConversion, m.Fails[0].Error)
	assert.Equal(t, common.KindCorruptDocument, m.Fails[0].Kind)

	for _, name := range []string{"a.json", "a.md", "c.json", "c.md", filepath.Join("images", "a_0.png")} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "b_corrupt.json"))
	assert.NoDirExists(t, filepath.Join(out, constants.StagingDirName))

	require.Equal(t, metrics.LogPath(out, filepath.Base(src)), res.LogPath)
	data, err := os.ReadFile(res.LogPath)
	require.NoError(t, err)
	var logged metrics.RunMetrics
	require.NoError(t, json.Unmarshal(data, &logged))
	assert.Equal(t, m, logged)

	assert.Equal(t, 3, obs.started)
	assert.Len(t, obs.finished, 3)
	assert.True(t, obs.done)
}

func TestRun_SingleFileAutoFallsBackToCPU(t *testing.T) {
	src := sourceDir(t, "only.pdf")
	out := t.TempDir()
	cfg := config(filepath.Join(src, "only.pdf"), out)
	cfg.Run.Device = "auto"

	res, err := NewService(cfg, executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Single)
	assert.True(t, res.Success)
	assert.Equal(t, constants.DeviceCPU, res.Device)
	assert.Empty(t, res.LogPath)

	data, err := os.ReadFile(filepath.Join(out, "only.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"producer": "CPU"`)
	assert.Contains(t, string(data), `<!-- #/tables/0 -->`)
}

func TestRun_SingleFileFailureReportsFalse(t *testing.T) {
	src := sourceDir(t, "corrupt.pdf")
	res, err := NewService(config(filepath.Join(src, "corrupt.pdf"), t.TempDir()), executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Single)
	assert.False(t, res.Success)
}

func TestRun_TimeoutIsIsolated(t *testing.T) {
	src := sourceDir(t, "a.pdf", "b_slow.pdf", "c.pdf")
	out := t.TempDir()
	cfg := config(src, out)
	cfg.Run.Workers = 1
	cfg.Run.Timeout = time.Second

	start := time.Now()
	res, err := NewService(cfg, executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)

	m := res.Metrics
	assert.Equal(t, 2, m.ProcessedDocs)
	assert.Equal(t, 1, m.TimeoutDocs)
	assert.True(t, m.Consistent())
	require.Len(t, m.Fails, 1)
	assert.Equal(t, common.CodeTimeout, m.Fails[0].Error)

	assert.FileExists(t, filepath.Join(out, "c.json"))
	assert.NoFileExists(t, filepath.Join(out, "b_slow.json"))
	assert.NoFileExists(t, filepath.Join(out, "b_slow.md"))
}

func TestRun_CrashedWorkerIsAJobFailure(t *testing.T) {
	src := sourceDir(t, "a.pdf", "crash.pdf")
	res, err := NewService(config(src, t.TempDir()), executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Metrics.FailedDocs)
	assert.Equal(t, common.KindWorkerCrashed, res.Metrics.Fails[0].Kind)
}

func TestRun_RerunRefusesToOverwrite(t *testing.T) {
	src := sourceDir(t, "a.pdf")
	out := t.TempDir()
	cfg := config(src, out)
	cfg.Run.FolderSeparation = true

	_, err := NewService(cfg, executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "a", "a.json"))
	require.NoError(t, err)

	_, err = NewService(cfg, executor(t), nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeOutputCollision))

	again, err := os.ReadFile(filepath.Join(out, "a", "a.json"))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRun_JobCannotTakeTheRunLogName(t *testing.T) {
	src := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.Mkdir(src, 0o755))
	for _, n := range []string{"a.pdf", "docs_log.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, n), []byte("%PDF-1.7"), 0o644))
	}
	out := t.TempDir()

	_, err := NewService(config(src, out), executor(t), nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeOutputCollision))
	assert.NoFileExists(t, filepath.Join(out, "docs_log.json"))
	assert.NoFileExists(t, filepath.Join(out, "a.json"))

	// Without a run log the name is free.
	cfg := config(src, out)
	cfg.Report.WriteLog = false
	res, err := NewService(cfg, executor(t), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Metrics.ProcessedDocs)
	data, err := os.ReadFile(filepath.Join(out, "docs_log.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"metadata"`)
}

func TestRun_InvalidSource(t *testing.T) {
	_, err := NewService(config(filepath.Join(t.TempDir(), "missing"), t.TempDir()), executor(t), nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeInvalidSource))
}

func TestRun_OutputIsAFile(t *testing.T) {
	src := sourceDir(t, "a.pdf")
	file := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewService(config(src, file), executor(t), nil).Run(context.Background())
	assert.True(t, common.IsCode(err, common.CodeIO))
}

func TestRun_LedgerAndReport(t *testing.T) {
	ctx := context.Background()
	src := sourceDir(t, "a.pdf", "b_corrupt.pdf")
	out := t.TempDir()
	cfg := config(src, out)
	cfg.Report.XLSXPath = filepath.Join(out, "report.xlsx")
	cfg.Ledger.DSN = filepath.Join(t.TempDir(), "ledger.db")

	led, err := ledger.Open(ctx, cfg.Ledger, nil)
	require.NoError(t, err)
	defer led.Close()

	res, err := NewService(cfg, executor(t), nil, WithLedger(led)).Run(ctx)
	require.NoError(t, err)
	assert.FileExists(t, res.ReportPath)

	runs, err := led.ListRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, constants.RunStatusFinished, runs[0].Status)
	assert.Equal(t, 50.0, runs[0].SuccessRate)

	outcomes, err := led.ListOutcomes(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, constants.JobStatusSuccess, outcomes[0].Status)
	assert.Equal(t, common.KindCorruptDocument, outcomes[1].ErrorKind)
}

func TestRun_CancelledRunAborts(t *testing.T) {
	src := sourceDir(t, "a_slow.pdf", "b_slow.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(500*time.Millisecond, cancel)

	_, err := NewService(config(src, t.TempDir()), executor(t), nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
