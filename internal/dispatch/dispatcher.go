package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

// Options shape the job list.
type Options struct {
	// Amount caps the number of jobs; 0 means all.
	Amount int
	// IncludeHidden also walks dot-files and dot-directories.
	IncludeHidden bool
}

// Stats summarizes a directory walk.
type Stats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// Dispatcher enumerates source PDFs into jobs.
type Dispatcher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Enumerate turns source (a PDF file or a directory) into jobs in
// lexicographic path order. It fails with InvalidSourceError when source
// does not exist, is a non-PDF file, or holds no PDFs.
func (d *Dispatcher) Enumerate(ctx context.Context, source string, opts Options) ([]pool.Job, Stats, error) {
	var stats Stats
	if strings.TrimSpace(source) == "" {
		return nil, stats, common.InvalidSourceError("source path is required", common.ErrInvalidInput)
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, stats, common.InvalidSourceError(fmt.Sprintf("resolve %s", source), err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, stats, common.InvalidSourceError(fmt.Sprintf("source %s does not exist", source), err)
	}

	var paths []string
	if !info.IsDir() {
		stats.Scanned = 1
		if !constants.IsPDF(abs) {
			return nil, stats, common.InvalidSourceError(fmt.Sprintf("source %s is not a .pdf file", source), common.ErrInvalidInput)
		}
		stats.Matched = 1
		paths = []string{abs}
	} else {
		paths, err = d.walk(ctx, abs, opts, &stats)
		if err != nil {
			return nil, stats, err
		}
		if len(paths) == 0 {
			return nil, stats, common.InvalidSourceError(fmt.Sprintf("no PDF files found in %s", source), common.ErrInvalidInput)
		}
	}

	sort.Strings(paths)
	if opts.Amount > 0 && opts.Amount < len(paths) {
		d.logger.Info("dispatch.amount.applied", "matched", len(paths), "amount", opts.Amount)
		paths = paths[:opts.Amount]
	}

	jobs := make([]pool.Job, len(paths))
	for i, p := range paths {
		jobs[i] = pool.Job{ID: uuid.New(), SourcePath: p, Index: i}
	}

	d.logger.Info("dispatch.ok",
		"source", abs,
		"jobs", len(jobs),
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return jobs, stats, nil
}

func (d *Dispatcher) walk(ctx context.Context, root string, opts Options, stats *Stats) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return walkErr
		}
		stats.Scanned++
		if walkErr != nil {
			d.logger.Warn("dispatch.walk.error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if !opts.IncludeHidden && IsHidden(path) {
			stats.Skipped++
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !entry.Type().IsRegular() && entry.Type()&fs.ModeSymlink == 0 {
			stats.Skipped++
			return nil
		}
		if !constants.IsPDF(path) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, common.InvalidSourceError(fmt.Sprintf("walk %s", root), err)
	}
	return paths, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
