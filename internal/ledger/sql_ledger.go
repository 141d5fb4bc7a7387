package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/metrics"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

// SQLLedger stores run history through ent's SQL builders, so the same
// queries serve SQLite and Postgres.
type SQLLedger struct {
	drv    *entsql.Driver
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (l *SQLLedger) builder() *entsql.DialectBuilder {
	return entsql.Dialect(l.drv.Dialect())
}

func (l *SQLLedger) exec(ctx context.Context, q entsql.Querier) error {
	query, args := q.Query()
	if err := l.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (l *SQLLedger) StartRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = constants.RunStatusRunning
	}
	q := l.builder().Insert(runsTableName).
		Columns("id", "source", "output", "device", "workers", "timeout_seconds", "status", "started_at").
		Values(run.ID, run.Source, run.Output, string(run.Device), run.Workers, run.TimeoutSeconds, string(run.Status), run.StartedAt.UnixMilli())
	if err := l.exec(ctx, q); err != nil {
		l.logger.Error("ledger.run.start_failed", "run_id", run.ID, "error", err)
		return err
	}
	l.logger.Debug("ledger.run.started", "run_id", run.ID)
	return nil
}

func (l *SQLLedger) RecordOutcome(ctx context.Context, runID string, o pool.Outcome) error {
	artifacts, err := json.Marshal(nonNil(o.ArtifactPaths))
	if err != nil {
		return err
	}
	var kind, class, message any
	if !o.Succeeded() {
		kind, class, message = o.ErrorKind, common.ClassOf(o.ErrorKind), o.ErrorMessage
	}
	q := l.builder().Insert(outcomesTableName).
		Columns("job_id", "run_id", "source_path", "status", "error_kind", "error_class", "error_message", "artifacts", "duration_ms", "recorded_at").
		Values(o.JobID.String(), runID, o.SourcePath, string(o.Status), kind, class, message, string(artifacts), o.Duration.Milliseconds(), time.Now().UnixMilli())
	if err := l.exec(ctx, q); err != nil {
		l.logger.Error("ledger.outcome.record_failed", "run_id", runID, "job_id", o.JobID, "error", err)
		return err
	}
	return nil
}

func (l *SQLLedger) FinishRun(ctx context.Context, runID string, status constants.RunStatus, m metrics.RunMetrics, at time.Time) error {
	q := l.builder().Update(runsTableName).
		Set("status", string(status)).
		Set("finished_at", at.UnixMilli()).
		Set("total_docs", m.TotalDocs).
		Set("processed_docs", m.ProcessedDocs).
		Set("failed_docs", m.FailedDocs).
		Set("timeout_docs", m.TimeoutDocs).
		Set("success_rate", m.SuccessRate).
		Where(entsql.EQ("id", runID))
	if err := l.exec(ctx, q); err != nil {
		l.logger.Error("ledger.run.finish_failed", "run_id", runID, "error", err)
		return err
	}
	l.logger.Debug("ledger.run.finished", "run_id", runID, "status", status)
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 20.
func (l *SQLLedger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	t := entsql.Table(runsTableName)
	sel := l.builder().Select(
		t.C("id"), t.C("source"), t.C("output"), t.C("device"), t.C("workers"), t.C("timeout_seconds"),
		t.C("status"), t.C("started_at"), t.C("finished_at"), t.C("total_docs"), t.C("processed_docs"),
		t.C("failed_docs"), t.C("timeout_docs"), t.C("success_rate"),
	).From(t).OrderBy(entsql.Desc(t.C("started_at"))).Limit(limit)

	query, args := sel.Query()
	var rows entsql.Rows
	if err := l.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r              Run
			device, status string
			startedMs      int64
			finishedMs     sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Output, &device, &r.Workers, &r.TimeoutSeconds,
			&status, &startedMs, &finishedMs, &r.TotalDocs, &r.ProcessedDocs,
			&r.FailedDocs, &r.TimeoutDocs, &r.SuccessRate); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		r.Device = constants.Device(device)
		r.Status = constants.RunStatus(status)
		r.StartedAt = time.UnixMilli(startedMs)
		if finishedMs.Valid {
			ft := time.UnixMilli(finishedMs.Int64)
			r.FinishedAt = &ft
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListOutcomes returns a run's outcomes ordered by source path.
func (l *SQLLedger) ListOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	t := entsql.Table(outcomesTableName)
	sel := l.builder().Select(
		t.C("job_id"), t.C("run_id"), t.C("source_path"), t.C("status"), t.C("error_kind"),
		t.C("error_class"), t.C("error_message"), t.C("artifacts"), t.C("duration_ms"), t.C("recorded_at"),
	).From(t).Where(entsql.EQ(t.C("run_id"), runID)).OrderBy(t.C("source_path"))

	query, args := sel.Query()
	var rows entsql.Rows
	if err := l.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var (
			r                      OutcomeRecord
			status, artifacts      string
			kind, class, message   sql.NullString
			durationMs, recordedMs int64
		)
		if err := rows.Scan(&r.JobID, &r.RunID, &r.SourcePath, &status, &kind,
			&class, &message, &artifacts, &durationMs, &recordedMs); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		r.Status = constants.JobStatus(status)
		r.ErrorKind, r.ErrorClass, r.ErrorMessage = kind.String, class.String, message.String
		if err := json.Unmarshal([]byte(artifacts), &r.Artifacts); err != nil {
			return nil, fmt.Errorf("decode artifacts of %s: %w", r.JobID, err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.RecordedAt = time.UnixMilli(recordedMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database connections.
func (l *SQLLedger) Close() error {
	err := l.drv.Close()
	if l.pool != nil {
		l.pool.Close()
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
