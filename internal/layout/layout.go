package layout

import (
	"errors"
	"fmt"
	"io"
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

// Config describes where committed artifacts land.
type Config struct {
	Output           string
	FolderSeparation bool
	// ImagesDir is used only without folder separation; empty means <Output>/images.
	ImagesDir string
	// Reserved are run-level files (run log, report) no job may write to.
	Reserved []string
}

// Placement is the destination of one job's artifacts.
type Placement struct {
	Stem      string
	Dir       string
	ImagesDir string
}

// JSONPath is where the job's JSON document is committed.
func (p Placement) JSONPath() string {
	return filepath.Join(p.Dir, p.Stem+constants.JSONExtension)
}

// MarkdownPath is where the job's Markdown rendering is committed.
func (p Placement) MarkdownPath() string {
	return filepath.Join(p.Dir, p.Stem+constants.MarkdownExtension)
}

// Manager decides artifact placement and moves staged files into it.
type Manager struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = filepath.Join(cfg.Output, constants.ImagesDirName)
	}
	return &Manager{cfg: cfg, logger: logger}
}

// EnsureOutput creates the output directory. An existing non-directory at
// that path is an IOError.
func (m *Manager) EnsureOutput() error {
	info, err := os.Stat(m.cfg.Output)
	switch {
	case err == nil && !info.IsDir():
		return common.IOError(fmt.Sprintf("output %s exists and is not a directory", m.cfg.Output), nil)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return common.IOError(fmt.Sprintf("stat output %s", m.cfg.Output), err)
	}
	if err := os.MkdirAll(m.cfg.Output, 0o755); err != nil {
		return common.IOError(fmt.Sprintf("create output %s", m.cfg.Output), err)
	}
	return nil
}

// Plan assigns a placement to every job. It refuses, with an
// OutputCollisionError, two jobs sharing a stem, a target left by an
// earlier run, or a target reserved for a run-level file.
func (m *Manager) Plan(jobs []pool.Job) (map[uuid.UUID]Placement, error) {
	placements := make(map[uuid.UUID]Placement, len(jobs))
	owners := make(map[string]string, len(jobs))
	reserved := make(map[string]bool, len(m.cfg.Reserved))
	for _, r := range m.cfg.Reserved {
		reserved[cleanAbs(r)] = true
	}

	for _, job := range jobs {
		stem := stemOf(job.SourcePath)
		if prev, dup := owners[stem]; dup {
			return nil, common.OutputCollisionError(fmt.Sprintf("%s and %s both produce output %q", prev, job.SourcePath, stem))
		}
		owners[stem] = job.SourcePath

		p := m.placementFor(stem)
		targets := []string{p.JSONPath(), p.MarkdownPath()}
		if m.cfg.FolderSeparation {
			targets = []string{p.Dir}
		}
		for _, target := range targets {
			if reserved[cleanAbs(target)] {
				return nil, common.OutputCollisionError(fmt.Sprintf("output of %s would replace run file %s", job.SourcePath, target))
			}
			if _, err := os.Lstat(target); err == nil {
				return nil, common.OutputCollisionError(fmt.Sprintf("%s already exists; refusing to overwrite output of %s", target, job.SourcePath))
			}
		}
		placements[job.ID] = p
	}

	m.logger.Debug("layout.plan.ok", "jobs", len(jobs), "folder_separation", m.cfg.FolderSeparation)
	return placements, nil
}

func (m *Manager) placementFor(stem string) Placement {
	if m.cfg.FolderSeparation {
		dir := filepath.Join(m.cfg.Output, stem)
		return Placement{Stem: stem, Dir: dir, ImagesDir: filepath.Join(dir, constants.ImagesDirName)}
	}
	return Placement{Stem: stem, Dir: m.cfg.Output, ImagesDir: m.cfg.ImagesDir}
}

// StagingDir is the private scratch directory for one job of a run.
func (m *Manager) StagingDir(runID string, jobID uuid.UUID) string {
	return filepath.Join(m.stagingRoot(runID), jobID.String())
}

func (m *Manager) stagingRoot(runID string) string {
	return filepath.Join(m.cfg.Output, constants.StagingDirName, runID)
}

// Cleanup removes the run's staging tree, and the staging parent if that
// leaves it empty.
func (m *Manager) Cleanup(runID string) {
	root := m.stagingRoot(runID)
	if err := os.RemoveAll(root); err != nil {
		m.logger.Warn("layout.staging.cleanup_failed", "dir", root, "error", err)
		return
	}
	_ = os.Remove(filepath.Dir(root))
}

// Commit moves staged artifacts (paths relative to stagingDir) to the
// placement without ever replacing an existing file. Images go first and the
// JSON document last, so a visible JSON implies a complete job. It returns
// the committed absolute paths. On error, files already placed for this job
// are removed again and nil is returned.
func (m *Manager) Commit(p Placement, stagingDir string, artifacts []string) ([]string, error) {
	ordered := append([]string(nil), artifacts...)
	sort.SliceStable(ordered, func(i, j int) bool { return commitRank(ordered[i]) < commitRank(ordered[j]) })

	committed := make([]string, 0, len(ordered))
	for _, rel := range ordered {
		src := filepath.Join(stagingDir, rel)
		dst := filepath.Join(p.Dir, filepath.Base(rel))
		if isImage(rel) {
			dst = filepath.Join(p.ImagesDir, filepath.Base(rel))
		}
		if abs, err := filepath.Abs(dst); err == nil {
			dst = abs
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			m.rollback(committed)
			return nil, common.IOError(fmt.Sprintf("create %s", filepath.Dir(dst)), err)
		}
		if err := placeNoClobber(src, dst); err != nil {
			m.rollback(committed)
			if errors.Is(err, fs.ErrExist) {
				return nil, common.OutputCollisionError(fmt.Sprintf("%s already exists; refusing to overwrite", dst))
			}
			return nil, common.IOError(fmt.Sprintf("commit %s", dst), err)
		}
		committed = append(committed, dst)
	}

	m.logger.Debug("layout.commit.ok", "stem", p.Stem, "artifacts", len(committed))
	return committed, nil
}

func (m *Manager) rollback(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("layout.commit.rollback_failed", "path", p, "error", err)
		}
	}
}

func cleanAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func commitRank(rel string) int {
	switch {
	case isImage(rel):
		return 0
	case strings.EqualFold(filepath.Ext(rel), constants.JSONExtension):
		return 2
	default:
		return 1
	}
}

func isImage(rel string) bool {
	first, _, found := strings.Cut(filepath.ToSlash(rel), "/")
	return found && first == constants.ImagesDirName
}

// placeNoClobber hard-links src to dst, falling back to an exclusive-create
// copy when linking is not possible (for example across devices). Either
// way an existing dst yields fs.ErrExist.
func placeNoClobber(src, dst string) error {
	err := os.Link(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return err
	}
	return copyExclusive(src, dst)
}

func copyExclusive(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
