package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// CommandConverter delegates conversion to an external program that prints
// the native document on stdout:
//
//	<command> <args...> --device <CPU|CUDA> [--force-ocr] <source>
//
// On failure the program exits non-zero; if the last stderr line is a JSON
// object {"kind","message"} it is reported verbatim.
type CommandConverter struct {
	command string
	args    []string
	runner  Runner
	logger  *slog.Logger
}

// CommandConfig configures a CommandConverter.
type CommandConfig struct {
	Command string
	Args    []string
	Runner  Runner // nil -> os/exec
}

func NewCommandConverter(cfg CommandConfig, logger *slog.Logger) *CommandConverter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner()
	}
	return &CommandConverter{
		command: cfg.Command,
		args:    cfg.Args,
		runner:  cfg.Runner,
		logger:  logger,
	}
}

func (c *CommandConverter) Convert(ctx context.Context, sourcePath string, opts Options) (*Document, error) {
	args := append([]string{}, c.args...)
	args = append(args, "--device", string(opts.Device))
	if opts.ForceOCR {
		args = append(args, "--force-ocr")
	}
	args = append(args, sourcePath)

	stdout, stderr, err := c.runner.Run(ctx, c.command, c.logger, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, Fail(common.KindConverterUnavailable, "converter %q not found", c.command)
		}
		if f := lastFailureLine(stderr); f != nil {
			return nil, f
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return nil, Fail(common.KindConversion, "%s", Truncate(msg, 2<<10))
	}

	doc, err := DecodeDocument(stdout)
	if err != nil {
		c.logger.Warn("converter.output.invalid", "source", sourcePath, "stdout_bytes", len(stdout), "error", err)
		return nil, err
	}
	return doc, nil
}

func lastFailureLine(stderr []byte) *Failure {
	lines := bytes.Split(bytes.TrimSpace(stderr), []byte("\n"))
	if len(lines) == 0 {
		return nil
	}
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) == 0 || last[0] != '{' {
		return nil
	}
	var f Failure
	if err := json.Unmarshal(last, &f); err != nil || f.Kind == "" {
		return nil
	}
	return &f
}
