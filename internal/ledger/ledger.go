package ledger

import (
	"context"
	"time"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/metrics"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

// Run is one row of the run history.
type Run struct {
	ID             string
	Source         string
	Output         string
	Device         constants.Device
	Workers        int
	TimeoutSeconds int
	Status         constants.RunStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	TotalDocs      int
	ProcessedDocs  int
	FailedDocs     int
	TimeoutDocs    int
	SuccessRate    float64
}

// OutcomeRecord is one job outcome as stored.
type OutcomeRecord struct {
	RunID        string
	JobID        string
	SourcePath   string
	Status       constants.JobStatus
	ErrorKind    string
	ErrorClass   string
	ErrorMessage string
	Artifacts    []string
	Duration     time.Duration
	RecordedAt   time.Time
}

// Ledger persists run history.
type Ledger interface {
	StartRun(ctx context.Context, run Run) error
	RecordOutcome(ctx context.Context, runID string, o pool.Outcome) error
	FinishRun(ctx context.Context, runID string, status constants.RunStatus, m metrics.RunMetrics, at time.Time) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error)
	Close() error
}

// Nop is the ledger used when none is configured.
type Nop struct{}

func (Nop) StartRun(context.Context, Run) error                           { return nil }
func (Nop) RecordOutcome(context.Context, string, pool.Outcome) error     { return nil }
func (Nop) ListRuns(context.Context, int) ([]Run, error)                  { return nil, nil }
func (Nop) ListOutcomes(context.Context, string) ([]OutcomeRecord, error) { return nil, nil }
func (Nop) Close() error                                                  { return nil }

func (Nop) FinishRun(context.Context, string, constants.RunStatus, metrics.RunMetrics, time.Time) error {
	return nil
}
