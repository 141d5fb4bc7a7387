package converter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// Detector reports whether the conversion environment has a usable accelerator.
type Detector interface {
	AcceleratorAvailable(ctx context.Context) bool
}

// NoAccelerator is the detector for backends that never use one.
type NoAccelerator struct{}

func (NoAccelerator) AcceleratorAvailable(context.Context) bool { return false }

// CommandDetector treats a successful, non-empty run of a detection command
// (nvidia-smi -L by default) as an available accelerator.
type CommandDetector struct {
	Command string
	Args    []string
	Runner  Runner
	Logger  *slog.Logger
}

func (p CommandDetector) AcceleratorAvailable(ctx context.Context) bool {
	if p.Command == "" {
		return false
	}
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdout, _, err := runner.Run(ctx, p.Command, logger, p.Args...)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(stdout)) != ""
}

// ResolveDevice turns the requested hint into the concrete device used for
// the whole run. AUTO picks CUDA only when the detector finds an accelerator.
// An explicit CUDA request without one falls back to CPU with a warning.
func ResolveDevice(ctx context.Context, requested constants.Device, detector Detector, logger *slog.Logger) constants.Device {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = NoAccelerator{}
	}

	switch requested {
	case constants.DeviceCPU:
		return constants.DeviceCPU
	case constants.DeviceCUDA:
		if detector.AcceleratorAvailable(ctx) {
			return constants.DeviceCUDA
		}
		logger.Warn("device.fallback",
			"requested", requested,
			"resolved", constants.DeviceCPU,
			"error", common.DeviceError("CUDA requested but no accelerator detected", nil),
		)
		return constants.DeviceCPU
	default:
		if detector.AcceleratorAvailable(ctx) {
			logger.Info("device.resolved", "requested", requested, "resolved", constants.DeviceCUDA)
			return constants.DeviceCUDA
		}
		logger.Info("device.resolved", "requested", requested, "resolved", constants.DeviceCPU)
		return constants.DeviceCPU
	}
}
