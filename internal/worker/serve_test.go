package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/materialize"
)

func TestServe_Success(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "job")
	req := Request{JobID: "j1", Source: "/in/report.pdf", Device: "CPU", StagingDir: staging, Stem: "report", Markdown: true}
	in, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), bytes.NewReader(in), &out, fakePort(), nil))

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, constants.JobStatusSuccess, resp.Status)
	assert.Equal(t, []string{filepath.Join("images", "report_0.png"), "report.md", "report.json"}, resp.Artifacts)
	for _, a := range resp.Artifacts {
		assert.FileExists(t, filepath.Join(staging, a))
	}

	data, err := os.ReadFile(filepath.Join(staging, "report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"producer": "CPU"`)
}

func TestHandle_FailureKinds(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	cases := []struct {
		name    string
		source  string
		staging string
		kind    string
	}{
		{"converter failure", "/in/corrupt.pdf", filepath.Join(dir, "a"), common.KindCorruptDocument},
		{"unwritable staging", "/in/ok.pdf", filepath.Join(blocker, "c"), common.KindOutputWriteFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := Handle(context.Background(), Request{Source: tc.source, StagingDir: tc.staging, Stem: "x"}, fakePort(), nil)
			assert.Equal(t, constants.JobStatusFailed, resp.Status)
			assert.Equal(t, tc.kind, resp.ErrorKind)
			assert.NotEmpty(t, resp.ErrorMessage)
			assert.Empty(t, resp.Artifacts)
		})
	}
}

func TestStage_BrokenReferences(t *testing.T) {
	res := &materialize.Result{Document: &materialize.Document{
		Pages:  []materialize.Page{{PageNumber: 1, Content: "no token here"}},
		Images: []materialize.Image{},
		Tables: []materialize.Table{{SelfRef: materialize.TableRef(0), Page: 1}},
	}}
	staging := filepath.Join(t.TempDir(), "job")
	resp := stage(Request{StagingDir: staging, Stem: "x"}, res, slog.Default())
	assert.Equal(t, constants.JobStatusFailed, resp.Status)
	assert.Equal(t, common.KindInvalidCrossReference, resp.ErrorKind)
	assert.NoFileExists(t, filepath.Join(staging, "x.json"))
}

func TestHandle_ConverterMessageIsUnwrapped(t *testing.T) {
	resp := Handle(context.Background(), Request{Source: "corrupt.pdf", StagingDir: t.TempDir()}, fakePort(), nil)
	assert.Equal(t, "cannot open corrupt.pdf", resp.ErrorMessage)
}

func TestServe_BadRequest(t *testing.T) {
	var out bytes.Buffer
	err := Serve(context.Background(), bytes.NewReader([]byte("{not json")), &out, fakePort(), nil)
	require.Error(t, err)
	assert.Zero(t, out.Len())
}

func TestStem(t *testing.T) {
	assert.Equal(t, "report", Stem("/a/b/report.pdf"))
	assert.Equal(t, "v1.2 notes", Stem("v1.2 notes.PDF"))
}
