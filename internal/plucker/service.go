package plucker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
	"github.com/joseph-ayodele/pdfplucker/internal/dispatch"
	"github.com/joseph-ayodele/pdfplucker/internal/layout"
	"github.com/joseph-ayodele/pdfplucker/internal/ledger"
	"github.com/joseph-ayodele/pdfplucker/internal/metrics"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
	"github.com/joseph-ayodele/pdfplucker/internal/worker"
)

// Executor runs one job in isolation, staging its artifacts in stagingDir.
// A non-nil error aborts the whole run.
type Executor interface {
	Execute(ctx context.Context, job pool.Job, stagingDir string) (worker.Response, error)
}

// Observer is told about run progress, e.g. to drive a progress bar.
// Methods are called from the supervising goroutine only.
type Observer interface {
	RunStarted(total int, single bool)
	JobFinished(o pool.Outcome)
	RunFinished()
}

type nopObserver struct{}

func (nopObserver) RunStarted(int, bool)     {}
func (nopObserver) JobFinished(pool.Outcome) {}
func (nopObserver) RunFinished()             {}

// Result is what a run produced. In single-document mode Success carries
// the lone job's status; in batch mode Metrics is the summary.
type Result struct {
	RunID      string
	Single     bool
	Success    bool
	Device     constants.Device
	Metrics    metrics.RunMetrics
	Outcomes   []pool.Outcome
	LogPath    string
	ReportPath string
}

// Service orchestrates a conversion run: dispatch, plan, execute, commit
// and aggregate.
type Service struct {
	cfg      *common.Config
	executor Executor
	detector converter.Detector
	ledger   ledger.Ledger
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithDetector(p converter.Detector) Option {
	return func(s *Service) {
		if p != nil {
			s.detector = p
		}
	}
}

func NewService(cfg *common.Config, executor Executor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:      cfg,
		executor: executor,
		detector: converter.NoAccelerator{},
		ledger:   ledger.Nop{},
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run converts the configured source. Job-level failures are reported in
// the result; run-level failures (bad source, output collisions, commit
// errors, cancellation) are returned as errors.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	runCfg := s.cfg.Run
	start := s.now()
	runID := uuid.NewString()
	ctx = common.WithRunID(ctx, runID)
	ctx = common.WithLogger(ctx, s.logger)
	logger := common.LoggerFrom(ctx)

	jobs, _, err := dispatch.New(logger).Enumerate(ctx, runCfg.Source, dispatch.Options{Amount: runCfg.Amount})
	if err != nil {
		logger.Error("run.dispatch.failed", "source", runCfg.Source, "error", err)
		return nil, err
	}
	single := isFile(runCfg.Source)

	var reserved []string
	if !single && s.cfg.Report.WriteLog {
		reserved = append(reserved, metrics.LogPath(runCfg.Output, sourceName(runCfg.Source)))
	}
	if s.cfg.Report.XLSXPath != "" {
		reserved = append(reserved, s.cfg.Report.XLSXPath)
	}
	lm := layout.New(layout.Config{
		Output:           runCfg.Output,
		FolderSeparation: runCfg.FolderSeparation,
		ImagesDir:        runCfg.Images,
		Reserved:         reserved,
	}, logger)
	if err := lm.EnsureOutput(); err != nil {
		return nil, err
	}
	placements, err := lm.Plan(jobs)
	if err != nil {
		logger.Error("run.plan.failed", "error", err)
		return nil, err
	}

	if limit := runtime.NumCPU() + 1; runCfg.Workers > limit {
		logger.Warn("run.workers.oversubscribed", "workers", runCfg.Workers, "recommended_max", limit)
	}
	device := converter.ResolveDevice(ctx, s.cfg.Device(), s.detector, logger)
	for i := range jobs {
		jobs[i].Device = device
	}

	logger.Info("run.start",
		"source", runCfg.Source,
		"output", runCfg.Output,
		"jobs", len(jobs),
		"workers", runCfg.Workers,
		"timeout", runCfg.Timeout.String(),
		"device", device,
		"single", single,
	)
	if err := s.ledger.StartRun(ctx, ledger.Run{
		ID:             runID,
		Source:         runCfg.Source,
		Output:         runCfg.Output,
		Device:         device,
		Workers:        runCfg.Workers,
		TimeoutSeconds: int(runCfg.Timeout / time.Second),
		Status:         constants.RunStatusRunning,
		StartedAt:      start,
	}); err != nil {
		logger.Warn("run.ledger.unavailable", "error", err)
	}
	defer lm.Cleanup(runID)

	agg := metrics.NewAggregator(len(jobs), start)
	s.observer.RunStarted(len(jobs), single)

	handle := func(jctx context.Context, job pool.Job) (pool.Outcome, error) {
		return s.runJob(jctx, lm, placements[job.ID], runID, job)
	}
	sink := func(o pool.Outcome) {
		agg.Record(o)
		if err := s.ledger.RecordOutcome(ctx, runID, o); err != nil {
			logger.Warn("run.ledger.record_failed", "job_id", o.JobID, "error", err)
		}
		s.observer.JobFinished(o)
	}

	p := pool.New(logger, pool.WithWorkers(runCfg.Workers), pool.WithJobTimeout(runCfg.Timeout))
	runErr := p.Run(ctx, jobs, handle, sink)
	s.observer.RunFinished()

	end := s.now()
	m := agg.Finalize(end)
	if runErr != nil {
		logger.Error("run.aborted", "error", runErr)
		s.finishLedger(ctx, runID, constants.RunStatusAborted, m, end)
		return nil, runErr
	}

	res := &Result{
		RunID:    runID,
		Single:   single,
		Device:   device,
		Metrics:  m,
		Outcomes: agg.Outcomes(),
	}
	if single {
		o := res.Outcomes[0]
		res.Success = o.Succeeded()
		if !res.Success {
			logger.Error("run.single.failed", "source", o.SourcePath, "status", o.Status, "kind", o.ErrorKind, "error", o.ErrorMessage)
		}
	} else if s.cfg.Report.WriteLog {
		path, err := metrics.WriteLog(runCfg.Output, sourceName(runCfg.Source), m)
		if err != nil {
			return nil, err
		}
		res.LogPath = path
	}
	if s.cfg.Report.XLSXPath != "" {
		path, err := s.writeReport(m, res.Outcomes, logger)
		if err != nil {
			return nil, err
		}
		res.ReportPath = path
	}

	s.finishLedger(ctx, runID, constants.RunStatusFinished, m, end)
	logger.Info("run.done",
		"total", m.TotalDocs,
		"processed", m.ProcessedDocs,
		"failed", m.FailedDocs,
		"timeout", m.TimeoutDocs,
		"success_rate", m.SuccessRate,
		"elapsed_ms", end.Sub(start).Milliseconds(),
	)
	return res, nil
}

// runJob executes one job and commits its artifacts. Only a cancelled run
// or a failed commit is returned as an error.
func (s *Service) runJob(ctx context.Context, lm *layout.Manager, placement layout.Placement, runID string, job pool.Job) (pool.Outcome, error) {
	logger := common.LoggerFrom(common.WithJobID(ctx, job.ID.String()))
	staging := lm.StagingDir(runID, job.ID)
	defer os.RemoveAll(staging)

	start := time.Now()
	resp, err := s.executor.Execute(ctx, job, staging)
	if err != nil {
		return pool.Outcome{}, err
	}

	out := pool.Outcome{
		JobID:        job.ID,
		SourcePath:   job.SourcePath,
		Status:       resp.Status,
		ErrorKind:    resp.ErrorKind,
		ErrorMessage: resp.ErrorMessage,
		Duration:     time.Since(start),
	}
	if out.Succeeded() {
		paths, err := lm.Commit(placement, staging, resp.Artifacts)
		if err != nil {
			logger.Error("job.commit.failed", "source", job.SourcePath, "error", err)
			return pool.Outcome{}, err
		}
		out.ArtifactPaths = paths
	}

	logger.Info("job.done",
		"source", job.SourcePath,
		"status", out.Status,
		"kind", out.ErrorKind,
		"duration_ms", out.Duration.Milliseconds(),
		"artifacts", len(out.ArtifactPaths),
	)
	return out, nil
}

func (s *Service) writeReport(m metrics.RunMetrics, outcomes []pool.Outcome, logger *slog.Logger) (string, error) {
	data, err := metrics.ExportXLSX(m, outcomes, logger)
	if err != nil {
		return "", common.IOError("render xlsx report", err)
	}
	path := s.cfg.Report.XLSXPath
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", common.IOError(fmt.Sprintf("write xlsx report %s", path), err)
	}
	return path, nil
}

func (s *Service) finishLedger(ctx context.Context, runID string, status constants.RunStatus, m metrics.RunMetrics, at time.Time) {
	// Recorded even when the run context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := s.ledger.FinishRun(ctx, runID, status, m, at); err != nil {
		common.LoggerFrom(ctx).Warn("run.ledger.finish_failed", "error", err)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sourceName(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		return filepath.Base(source)
	}
	return filepath.Base(abs)
}
