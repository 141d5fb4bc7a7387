package converter

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// DefaultOCRDPI is the render resolution for pages sent to tesseract.
const DefaultOCRDPI = 300

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// TesseractConfig configures the external OCR step of the fitz backend.
type TesseractConfig struct {
	Command     string
	Lang        string
	TessdataDir string
	DPI         float64
	Runner      Runner
}

// TesseractOCR recognizes text in rendered page images by shelling out to
// tesseract.
type TesseractOCR struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

func NewTesseractOCR(cfg TesseractConfig, logger *slog.Logger) *TesseractOCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultOCRDPI
	}
	runner := cfg.Runner
	if runner == nil {
		runner = ExecRunner()
	}
	return &TesseractOCR{cfg: cfg, runner: runner, logger: logger}
}

func (t *TesseractOCR) DPI() float64 { return t.cfg.DPI }

// PageText runs tesseract over a PNG-encoded page and returns normalized text.
func (t *TesseractOCR) PageText(ctx context.Context, png []byte) (string, error) {
	f, err := os.CreateTemp("", "pdfplucker-ocr-*.png")
	if err != nil {
		return "", Fail(common.KindConversion, "ocr temp file: %v", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(png); err != nil {
		_ = f.Close()
		return "", Fail(common.KindConversion, "ocr temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		return "", Fail(common.KindConversion, "ocr temp file: %v", err)
	}

	// tesseract <file> stdout -l <lang>
	args := []string{filepath.Clean(path), "stdout", "-l", t.cfg.Lang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, errb, err := t.runner.Run(ctx, t.cfg.Command, t.logger, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", Fail(common.KindConverterUnavailable, "tesseract not found: %s", t.cfg.Command)
		}
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return "", Fail(common.KindConversion, "tesseract: %s", Truncate(msg, 2<<10))
	}
	return NormalizeOCR(reBoxNoise.ReplaceAllString(string(out), "")), nil
}

// NormalizeOCR collapses noisy whitespace while keeping paragraph breaks.
func NormalizeOCR(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
