package converter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/pdfplucker/constants"
)

type fixedDetector bool

func (p fixedDetector) AcceleratorAvailable(context.Context) bool { return bool(p) }

func TestResolveDevice(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		requested constants.Device
		detector  Detector
		want      constants.Device
	}{
		{"auto without accelerator", constants.DeviceAuto, fixedDetector(false), constants.DeviceCPU},
		{"auto with accelerator", constants.DeviceAuto, fixedDetector(true), constants.DeviceCUDA},
		{"cpu ignores accelerator", constants.DeviceCPU, fixedDetector(true), constants.DeviceCPU},
		{"cuda available", constants.DeviceCUDA, fixedDetector(true), constants.DeviceCUDA},
		{"cuda falls back", constants.DeviceCUDA, fixedDetector(false), constants.DeviceCPU},
		{"nil detector", constants.DeviceAuto, nil, constants.DeviceCPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDevice(ctx, tt.requested, tt.detector, nil))
		})
	}
}

func TestCommandDetector(t *testing.T) {
	ctx := context.Background()

	ok := CommandDetector{Command: "nvidia-smi", Runner: &stubRunner{stdout: []byte("GPU 0: A100\n")}}
	assert.True(t, ok.AcceleratorAvailable(ctx))

	empty := CommandDetector{Command: "nvidia-smi", Runner: &stubRunner{stdout: []byte("  \n")}}
	assert.False(t, empty.AcceleratorAvailable(ctx))

	failing := CommandDetector{Command: "nvidia-smi", Runner: &stubRunner{err: errors.New("not found")}}
	assert.False(t, failing.AcceleratorAvailable(ctx))

	assert.False(t, CommandDetector{}.AcceleratorAvailable(ctx))
}
