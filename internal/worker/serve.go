package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
	"github.com/joseph-ayodele/pdfplucker/internal/materialize"
)

// Serve is the worker process entry point: one request in, one response out.
// A returned error means the protocol itself broke; conversion failures are
// reported in the response.
func Serve(ctx context.Context, in io.Reader, out io.Writer, port converter.Port, logger *slog.Logger) error {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	resp := Handle(ctx, req, port, logger)
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// Handle converts one source and writes its artifacts into the staging dir.
func Handle(ctx context.Context, req Request, port converter.Port, logger *slog.Logger) Response {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job_id", req.JobID, "source", req.Source)
	start := time.Now()

	device, ok := constants.ParseDevice(req.Device)
	if !ok {
		device = constants.DeviceCPU
	}

	doc, err := port.Convert(ctx, req.Source, converter.Options{Device: device, ForceOCR: req.ForceOCR})
	if err != nil {
		kind := converter.KindOf(err)
		logger.Warn("worker.convert.failed", "kind", kind, "error", err)
		return failed(kind, failureMessage(err))
	}

	res, err := materialize.New(materialize.Config{Markdown: req.Markdown}).Build(doc, filepath.Base(req.Source))
	if err != nil {
		logger.Warn("worker.materialize.failed", "error", err)
		return failed(common.KindConversion, err.Error())
	}

	resp := stage(req, res, logger)
	if resp.Status != constants.JobStatusSuccess {
		return resp
	}

	logger.Info("worker.done",
		"duration_ms", time.Since(start).Milliseconds(),
		"tables", len(res.Document.Tables),
		"images", len(res.Document.Images),
		"pages", len(res.Document.Pages),
	)
	return resp
}

// stage writes res into the request's staging dir.
func stage(req Request, res *materialize.Result, logger *slog.Logger) Response {
	if err := os.MkdirAll(req.StagingDir, 0o755); err != nil {
		return failed(common.KindOutputWriteFailed, err.Error())
	}
	artifacts, err := materialize.WriteStaged(req.StagingDir, req.Stem, res)
	if err != nil {
		var inv *materialize.InvariantError
		switch {
		case errors.As(err, &inv) && inv.Schema:
			return failed(common.KindSchemaViolation, err.Error())
		case errors.As(err, &inv):
			return failed(common.KindInvalidCrossReference, err.Error())
		default:
			logger.Error("worker.stage.failed", "staging_dir", req.StagingDir, "error", err)
			return failed(common.KindOutputWriteFailed, err.Error())
		}
	}
	return Response{Status: constants.JobStatusSuccess, Artifacts: artifacts}
}

func failureMessage(err error) string {
	var f *converter.Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return err.Error()
}
