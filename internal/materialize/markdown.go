package materialize

import (
	"encoding/base64"
	"strings"
)

// renderMarkdown renders the block stream page by page. Tables become pipe
// tables and pictures are embedded as base64 data URIs.
func renderMarkdown(maxPage int, pages map[int][]block, doc *Document, images []ImageFile) []byte {
	pixels := make(map[string]ImageFile, len(images))
	for _, f := range images {
		pixels[f.SelfRef] = f
	}

	var parts []string
	for p := 1; p <= maxPage; p++ {
		for _, b := range pages[p] {
			switch b.kind {
			case blockHeading:
				parts = append(parts, "## "+oneLine(b.text))
			case blockListItem:
				parts = append(parts, "- "+b.text)
			case blockFormula:
				parts = append(parts, "$$\n"+b.text+"\n$$")
			case blockTable:
				parts = append(parts, markdownTable(doc.Tables[b.index]))
			case blockPicture:
				parts = append(parts, markdownImage(doc.Images[b.index], pixels))
			default:
				parts = append(parts, b.text)
			}
		}
	}
	if len(parts) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(parts, "\n\n") + "\n")
}

func markdownTable(t Table) string {
	cols := t.Table.Columns
	width := len(cols)
	for _, r := range t.Table.Rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		if t.Caption != "" {
			return "*" + oneLine(t.Caption) + "*"
		}
		return Token(t.SelfRef)
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" ")
			sb.WriteString(escapeCell(cell))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(cols)
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, r := range t.Table.Rows {
		writeRow(r)
	}
	if t.Caption != "" {
		sb.WriteString("\n*")
		sb.WriteString(oneLine(t.Caption))
		sb.WriteString("*")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func markdownImage(img Image, pixels map[string]ImageFile) string {
	alt := oneLine(img.Caption)
	f, ok := pixels[img.SelfRef]
	if !ok {
		if alt != "" {
			return "*" + alt + "*"
		}
		return Token(img.SelfRef)
	}
	return "![" + strings.ReplaceAll(alt, "]", "\\]") + "](data:" + f.MimeType + ";base64," +
		base64.StdEncoding.EncodeToString(f.Data) + ")"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", "\\|")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
