package converter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// FitzConverter is the built-in backend: MuPDF page text plus document
// metadata. It produces no tables or pictures and ignores the device hint.
// With an OCR step attached, pages without a text layer (or every page when
// ForceOCR is set) are rendered and recognized instead.
type FitzConverter struct {
	ocr    *TesseractOCR
	logger *slog.Logger
}

func NewFitzConverter(ocr *TesseractOCR, logger *slog.Logger) *FitzConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FitzConverter{ocr: ocr, logger: logger}
}

func (f *FitzConverter) Convert(ctx context.Context, sourcePath string, opts Options) (*Document, error) {
	doc, err := fitz.New(sourcePath)
	if err != nil {
		return nil, Fail(common.KindCorruptDocument, "open pdf: %v", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, Fail(common.KindCorruptDocument, "pdf has no pages")
	}

	out := &Document{
		Version:    NativeVersion,
		Properties: propertiesFromFitz(doc.Metadata(), pageCount),
	}

	if opts.ForceOCR && f.ocr == nil {
		f.logger.Warn("fitz.ocr.unavailable", "source", sourcePath)
	}

	ocrPages := 0
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var text string
		if !opts.ForceOCR || f.ocr == nil {
			text, err = doc.Text(pageNum)
			if err != nil {
				return nil, Fail(common.KindConversion, "extract text from page %d: %v", pageNum+1, err)
			}
		}
		if f.ocr != nil && (opts.ForceOCR || strings.TrimSpace(text) == "") {
			png, err := doc.ImagePNG(pageNum, f.ocr.DPI())
			if err != nil {
				return nil, Fail(common.KindConversion, "render page %d: %v", pageNum+1, err)
			}
			text, err = f.ocr.PageText(ctx, png)
			if err != nil {
				return nil, err
			}
			ocrPages++
		}
		for _, para := range splitParagraphs(text) {
			out.Items = append(out.Items, Item{Kind: ItemText, Label: LabelText, Page: pageNum + 1, Text: para})
		}
	}

	f.logger.Debug("fitz.convert.ok", "source", sourcePath, "pages", pageCount, "ocr_pages", ocrPages, "blocks", len(out.Items))
	return out, nil
}

// ReadFitzMetadata reads only the document properties of a PDF.
func ReadFitzMetadata(sourcePath string) (Properties, error) {
	doc, err := fitz.New(sourcePath)
	if err != nil {
		return Properties{}, err
	}
	defer doc.Close()
	return propertiesFromFitz(doc.Metadata(), doc.NumPage()), nil
}

// WithFitzMetadata wraps next so that document properties it leaves empty
// are filled from MuPDF.
func WithFitzMetadata(next Port, logger *slog.Logger) Port {
	if logger == nil {
		logger = slog.Default()
	}
	return PortFunc(func(ctx context.Context, sourcePath string, opts Options) (*Document, error) {
		doc, err := next.Convert(ctx, sourcePath, opts)
		if err != nil {
			return nil, err
		}
		props, err := ReadFitzMetadata(sourcePath)
		if err != nil {
			logger.Warn("fitz.metadata.failed", "source", sourcePath, "error", err)
			return doc, nil
		}
		doc.Properties.FillFrom(props)
		return doc, nil
	})
}

func propertiesFromFitz(meta map[string]string, pageCount int) Properties {
	return Properties{
		Format:       metaValue(meta, "format"),
		Title:        metaValue(meta, "title"),
		Author:       metaValue(meta, "author"),
		Subject:      metaValue(meta, "subject"),
		Keywords:     metaValue(meta, "keywords"),
		Creator:      metaValue(meta, "creator"),
		Producer:     metaValue(meta, "producer"),
		CreationDate: metaValue(meta, "creationDate"),
		ModDate:      metaValue(meta, "modDate"),
		Encryption:   metaValue(meta, "encryption"),
		PageCount:    pageCount,
	}
}

// metaValue reads one MuPDF metadata entry. Values come back as fixed-size
// C buffers, so everything from the first NUL on is padding.
func metaValue(meta map[string]string, key string) string {
	v := meta[key]
	if i := strings.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// splitParagraphs breaks page text on blank lines, dropping empty blocks.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}
