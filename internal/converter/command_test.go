package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

type stubRunner struct {
	stdout, stderr []byte
	err            error

	gotName string
	gotArgs []string
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.gotName = name
	s.gotArgs = args
	return s.stdout, s.stderr, s.err
}

const minimalDoc = `{"version":"1","properties":{"title":"Report","page_count":1},
"items":[{"kind":"text","label":"text","page":1,"text":"hello"}]}`

func TestCommandConverter_Success(t *testing.T) {
	r := &stubRunner{stdout: []byte(minimalDoc)}
	c := NewCommandConverter(CommandConfig{Command: "conv", Args: []string{"--json"}, Runner: r}, nil)

	doc, err := c.Convert(context.Background(), "/in/a.pdf", Options{Device: constants.DeviceCUDA, ForceOCR: true})
	require.NoError(t, err)

	assert.Equal(t, "conv", r.gotName)
	assert.Equal(t, []string{"--json", "--device", "CUDA", "--force-ocr", "/in/a.pdf"}, r.gotArgs)
	assert.Equal(t, "Report", doc.Properties.Title)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "hello", doc.Items[0].Text)
}

func TestCommandConverter_ReportedFailure(t *testing.T) {
	r := &stubRunner{
		stderr: []byte("loading model\n{\"kind\":\"CorruptDocument\",\"message\":\"xref table broken\"}\n"),
		err:    errors.New("exit status 2"),
	}
	c := NewCommandConverter(CommandConfig{Command: "conv", Runner: r}, nil)

	_, err := c.Convert(context.Background(), "/in/bad.pdf", Options{Device: constants.DeviceCPU})
	require.Error(t, err)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "CorruptDocument", f.Kind)
	assert.Equal(t, "xref table broken", f.Message)
}

func TestCommandConverter_UnstructuredFailure(t *testing.T) {
	r := &stubRunner{stderr: []byte("Traceback: boom"), err: errors.New("exit status 1")}
	c := NewCommandConverter(CommandConfig{Command: "conv", Runner: r}, nil)

	_, err := c.Convert(context.Background(), "/in/x.pdf", Options{})
	assert.Equal(t, common.KindConversion, KindOf(err))
	assert.Contains(t, err.Error(), "Traceback: boom")
}

func TestCommandConverter_MissingBinary(t *testing.T) {
	r := &stubRunner{err: &exec.Error{Name: "conv", Err: exec.ErrNotFound}}
	c := NewCommandConverter(CommandConfig{Command: "conv", Runner: r}, nil)

	_, err := c.Convert(context.Background(), "/in/x.pdf", Options{})
	assert.Equal(t, common.KindConverterUnavailable, KindOf(err))
}

func TestCommandConverter_MalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":      "garbage",
		"wrong version": `{"version":"0","items":[]}`,
		"bad kind":      `{"version":"1","items":[{"kind":"video"}]}`,
		"no items":      `{"version":"1"}`,
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewCommandConverter(CommandConfig{Command: "conv", Runner: &stubRunner{stdout: []byte(out)}}, nil)
			_, err := c.Convert(context.Background(), "/in/x.pdf", Options{})
			assert.Equal(t, common.KindMalformedOutput, KindOf(err))
		})
	}
}

func TestDecodeDocument_ImageBase64(t *testing.T) {
	data := []byte(`{"version":"1","items":[{"kind":"picture","page":1,"image":{"mimetype":"image/png","data":"iVBORw=="}}]}`)
	doc, err := DecodeDocument(data)
	require.NoError(t, err)
	require.NotNil(t, doc.Items[0].Image)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, doc.Items[0].Image.Data)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "UnsupportedFormat", KindOf(fmt.Errorf("wrapped: %w", Fail("UnsupportedFormat", "xps"))))
	assert.Equal(t, common.KindConversion, KindOf(errors.New("plain")))
}

func TestBestClass(t *testing.T) {
	it := Item{Classes: []Class{{"chart", 0.2}, {"photo", 0.7}, {"logo", 0.1}}}
	best, ok := it.BestClass()
	require.True(t, ok)
	assert.Equal(t, "photo", best.Name)

	_, ok = Item{}.BestClass()
	assert.False(t, ok)
}

func TestPropertiesFillFrom(t *testing.T) {
	p := Properties{Title: "Mine"}
	p.FillFrom(Properties{Title: "Theirs", Author: "A", PageCount: 3})
	assert.Equal(t, "Mine", p.Title)
	assert.Equal(t, "A", p.Author)
	assert.Equal(t, 3, p.PageCount)
}
