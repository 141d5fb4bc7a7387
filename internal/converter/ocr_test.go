package converter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

func TestTesseractOCR_PageText(t *testing.T) {
	r := &stubRunner{stdout: []byte("Invoice\t 42\r\n-----\n\n\n\nTotal   due  \n")}
	ocr := NewTesseractOCR(TesseractConfig{Command: "tesseract", TessdataDir: "/share/tessdata", Runner: r}, nil)

	text, err := ocr.PageText(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "Invoice 42\n\nTotal due", text)

	assert.Equal(t, "tesseract", r.gotName)
	require.Len(t, r.gotArgs, 6)
	assert.Equal(t, []string{"stdout", "-l", "eng", "--tessdata-dir", "/share/tessdata"}, r.gotArgs[1:])
	assert.Equal(t, float64(DefaultOCRDPI), ocr.DPI())
}

func TestTesseractOCR_Failures(t *testing.T) {
	tests := []struct {
		name string
		r    *stubRunner
		kind string
		msg  string
	}{
		{"missing binary", &stubRunner{err: fmt.Errorf("exec: %w", exec.ErrNotFound)}, common.KindConverterUnavailable, "tesseract not found"},
		{"stderr", &stubRunner{stderr: []byte("Error opening data file\n"), err: errors.New("exit status 1")}, common.KindConversion, "Error opening data file"},
		{"no stderr", &stubRunner{err: errors.New("exit status 1")}, common.KindConversion, "exit status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocr := NewTesseractOCR(TesseractConfig{Command: "tesseract", Runner: tt.r}, nil)
			_, err := ocr.PageText(context.Background(), []byte("png"))
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Contains(t, f.Message, tt.msg)
		})
	}
}

func TestTesseractOCR_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ocr := NewTesseractOCR(TesseractConfig{Command: "tesseract", Runner: &stubRunner{err: errors.New("signal: killed")}}, nil)
	_, err := ocr.PageText(ctx, []byte("png"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_FitzWithOCR(t *testing.T) {
	port, detector, err := New(common.ConverterConfig{Backend: common.BackendFitz, Tesseract: "tesseract"}, nil)
	require.NoError(t, err)
	fc, ok := port.(*FitzConverter)
	require.True(t, ok)
	require.NotNil(t, fc.ocr)
	assert.Equal(t, "eng", fc.ocr.cfg.Lang)
	assert.IsType(t, NoAccelerator{}, detector)

	port, _, err = New(common.ConverterConfig{Backend: common.BackendFitz}, nil)
	require.NoError(t, err)
	assert.Nil(t, port.(*FitzConverter).ocr)
}
