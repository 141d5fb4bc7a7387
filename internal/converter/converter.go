package converter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// New builds the configured backend and its accelerator detector.
func New(cfg common.ConverterConfig, logger *slog.Logger) (Port, Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case common.BackendFitz, "":
		var ocr *TesseractOCR
		if strings.TrimSpace(cfg.Tesseract) != "" {
			ocr = NewTesseractOCR(TesseractConfig{
				Command:     cfg.Tesseract,
				Lang:        cfg.TesseractLang,
				TessdataDir: cfg.TessdataDir,
				DPI:         cfg.OCRDPI,
			}, logger)
		}
		return NewFitzConverter(ocr, logger), NoAccelerator{}, nil
	case common.BackendCommand:
		var port Port = NewCommandConverter(CommandConfig{Command: cfg.Command, Args: cfg.Args}, logger)
		if cfg.FitzMetadata {
			port = WithFitzMetadata(port, logger)
		}
		detector := CommandDetector{Command: cfg.DetectCommand, Args: cfg.DetectArgs, Logger: logger}
		return port, detector, nil
	default:
		return nil, nil, common.ConfigError(fmt.Sprintf("unknown converter backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}
