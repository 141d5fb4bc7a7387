package converter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

const fixturePDF = "testdata/report.pdf"

func TestFitzConverter_Convert(t *testing.T) {
	doc, err := NewFitzConverter(nil, nil).Convert(context.Background(), fixturePDF, Options{})
	require.NoError(t, err)

	p := doc.Properties
	assert.Equal(t, "Quarterly Report", p.Title)
	assert.Equal(t, "pdfplucker fixture", p.Producer)
	assert.True(t, strings.HasPrefix(p.Format, "PDF"), "format %q", p.Format)
	assert.Equal(t, 1, p.PageCount)

	// Fields the file does not carry come back empty, not padded.
	assert.Empty(t, p.Author)
	assert.Empty(t, p.Subject)
	assert.Empty(t, p.Keywords)
	for _, v := range []string{p.Format, p.Title, p.Author, p.Creator, p.Producer, p.CreationDate, p.ModDate, p.Encryption} {
		assert.NotContains(t, v, "\x00")
	}

	require.NotEmpty(t, doc.Items)
	assert.Equal(t, 1, doc.Items[0].Page)
	assert.Contains(t, doc.Items[0].Text, "Hello fixture")
}

func TestFitzConverter_CorruptDocument(t *testing.T) {
	_, err := NewFitzConverter(nil, nil).Convert(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), Options{})
	assert.Equal(t, common.KindCorruptDocument, KindOf(err))
}

func TestWithFitzMetadata_FillsOnlyEmptyFields(t *testing.T) {
	next := PortFunc(func(context.Context, string, Options) (*Document, error) {
		return &Document{Version: NativeVersion, Properties: Properties{Title: "From converter"}}, nil
	})
	doc, err := WithFitzMetadata(next, nil).Convert(context.Background(), fixturePDF, Options{})
	require.NoError(t, err)
	assert.Equal(t, "From converter", doc.Properties.Title)
	assert.Equal(t, "pdfplucker fixture", doc.Properties.Producer)
	assert.Empty(t, doc.Properties.Author)
}

func TestMetaValue(t *testing.T) {
	meta := map[string]string{
		"title":  "  Report \x00\x00\x00",
		"author": strings.Repeat("\x00", 256),
		"format": "PDF 1.4\x00junk",
	}
	assert.Equal(t, "Report", metaValue(meta, "title"))
	assert.Empty(t, metaValue(meta, "author"))
	assert.Equal(t, "PDF 1.4", metaValue(meta, "format"))
	assert.Empty(t, metaValue(meta, "subject"))
}
