package constants

import (
	"path/filepath"
	"strings"
)

// PDFExtension is the only source extension the dispatcher accepts (lowercased, sans '.').
const PDFExtension = "pdf"

// Artifact file extensions written per job.
const (
	JSONExtension     = ".json"
	MarkdownExtension = ".md"
	ImageExtension    = ".png"
)

// ImagesDirName is the per-job images folder used with folder separation,
// and the default flat images folder under the output directory.
const ImagesDirName = "images"

// StagingDirName holds in-flight job output under the output directory.
const StagingDirName = ".pdfplucker-staging"

// IsPDF reports whether path carries the PDF extension (case-insensitive).
func IsPDF(path string) bool {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) == PDFExtension
}
