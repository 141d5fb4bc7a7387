package materialize

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
)

// Config controls optional outputs.
type Config struct {
	Markdown bool
}

// Materializer reshapes native documents. It holds no per-document state,
// so one value can serve any number of sequential Build calls.
type Materializer struct {
	cfg Config
}

func New(cfg Config) *Materializer {
	return &Materializer{cfg: cfg}
}

type blockKind int

const (
	blockText blockKind = iota
	blockHeading
	blockListItem
	blockFormula
	blockTable
	blockPicture
)

type block struct {
	kind  blockKind
	text  string
	index int // into tables/images for blockTable/blockPicture
}

// Build converts doc into the output schema. filename is the source file's
// base name; its stem prefixes extracted image names.
func (m *Materializer) Build(doc *converter.Document, filename string) (*Result, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	captions, linked := linkCaptions(doc.Items)

	out := &Document{
		Images: []Image{},
		Tables: []Table{},
	}
	var images []ImageFile
	pages := map[int][]block{}
	maxPage := doc.Properties.PageCount
	lastPage := 0

	for _, item := range doc.Items {
		page := item.Page
		if page <= 0 {
			page = lastPage
			if page == 0 {
				page = 1
			}
		}
		lastPage = page
		if page > maxPage {
			maxPage = page
		}

		switch item.Kind {
		case converter.ItemTable:
			n := len(out.Tables)
			t := Table{
				SelfRef:    TableRef(n),
				Caption:    captionFor(item, captions),
				References: nonNil(item.References),
				Footnotes:  nonNil(item.Footnotes),
				Page:       page,
			}
			if item.Data != nil {
				t.Table = *item.Data
			}
			t.Table.Columns = nonNil(t.Table.Columns)
			if t.Table.Rows == nil {
				t.Table.Rows = [][]string{}
			}
			out.Tables = append(out.Tables, t)
			pages[page] = append(pages[page], block{kind: blockTable, index: n})

		case converter.ItemPicture:
			n := len(out.Images)
			img := Image{
				SelfRef:        PictureRef(n),
				Caption:        captionFor(item, captions),
				Classification: item.Classification,
				Confidence:     item.Confidence,
				References:     nonNil(item.References),
				Footnotes:      nonNil(item.Footnotes),
				Page:           page,
			}
			if img.Classification == "" {
				if best, ok := item.BestClass(); ok {
					img.Classification = best.Name
					img.Confidence = best.Confidence
				}
			}
			if item.Image != nil && len(item.Image.Data) > 0 {
				img.Ref = imageName(stem, n, item.Image.MimeType)
				images = append(images, ImageFile{
					Name:     img.Ref,
					SelfRef:  img.SelfRef,
					MimeType: mimeOrPNG(item.Image.MimeType),
					Data:     item.Image.Data,
				})
			}
			out.Images = append(out.Images, img)
			pages[page] = append(pages[page], block{kind: blockPicture, index: n})

		default:
			if linked[item.ID] && item.ID != "" {
				continue
			}
			// Literal tokens in source text would read as cross references.
			text := tokenPattern.ReplaceAllString(strings.TrimSpace(item.Text), "$1")
			if text == "" {
				continue
			}
			pages[page] = append(pages[page], block{kind: textKind(item.Label), text: text})
		}
	}

	out.Pages = make([]Page, 0, maxPage)
	for p := 1; p <= maxPage; p++ {
		out.Pages = append(out.Pages, Page{PageNumber: p, Content: plainContent(pages[p], out)})
	}
	out.Metadata = buildMetadata(doc.Properties, filename, len(out.Pages))

	res := &Result{Document: out, Images: images}
	if m.cfg.Markdown {
		res.Markdown = renderMarkdown(maxPage, pages, out, images)
	}
	return res, nil
}

// linkCaptions maps table/picture IDs to the text of caption items whose
// parent points at them. linked holds the IDs of the consumed caption items.
func linkCaptions(items []converter.Item) (map[string]string, map[string]bool) {
	targets := map[string]bool{}
	for _, it := range items {
		if (it.Kind == converter.ItemTable || it.Kind == converter.ItemPicture) && it.ID != "" {
			targets[it.ID] = true
		}
	}
	captions := map[string]string{}
	linked := map[string]bool{}
	for _, it := range items {
		if it.Kind != converter.ItemText || it.Label != converter.LabelCaption || !targets[it.Parent] {
			continue
		}
		text := strings.TrimSpace(it.Text)
		if prev, ok := captions[it.Parent]; ok && prev != "" {
			text = prev + " " + text
		}
		captions[it.Parent] = text
		if it.ID != "" {
			linked[it.ID] = true
		}
	}
	return captions, linked
}

func captionFor(item converter.Item, captions map[string]string) string {
	if c := strings.TrimSpace(item.Caption); c != "" {
		return c
	}
	if item.ID == "" {
		return ""
	}
	return captions[item.ID]
}

func textKind(label string) blockKind {
	switch label {
	case converter.LabelSectionHeader:
		return blockHeading
	case converter.LabelListItem:
		return blockListItem
	case converter.LabelFormula:
		return blockFormula
	default:
		return blockText
	}
}

func plainContent(blocks []block, doc *Document) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.kind {
		case blockTable:
			lines = append(lines, Token(doc.Tables[b.index].SelfRef))
		case blockPicture:
			lines = append(lines, Token(doc.Images[b.index].SelfRef))
		case blockFormula:
			lines = append(lines, "Equation: "+b.text)
		default:
			lines = append(lines, b.text)
		}
	}
	return strings.Join(lines, "\n")
}

func buildMetadata(p converter.Properties, filename string, pageAmount int) Metadata {
	return Metadata{
		Format:       orUnknown(p.Format),
		Title:        orUnknown(p.Title),
		Author:       orUnknown(p.Author),
		Subject:      orUnknown(p.Subject),
		Keywords:     orUnknown(p.Keywords),
		Creator:      orUnknown(p.Creator),
		Producer:     orUnknown(p.Producer),
		CreationDate: orUnknown(p.CreationDate),
		ModDate:      orUnknown(p.ModDate),
		Encryption:   orUnknown(p.Encryption),
		Filename:     orUnknown(filename),
		PageAmount:   pageAmount,
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mimeOrPNG(m string) string {
	if m == "" {
		return "image/png"
	}
	return m
}

func imageName(stem string, n int, mime string) string {
	ext := constants.ImageExtension
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	return stem + "_" + strconv.Itoa(n) + ext
}
