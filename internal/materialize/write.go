package materialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/pdfplucker/constants"
)

// Encode renders the document as indented JSON without HTML escaping.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteStaged writes a result into dir as <stem>.json, <stem>.md and
// images/<name>, returning the written paths relative to dir. The JSON is
// checked against the output schema and the reference invariants first.
func WriteStaged(dir, stem string, res *Result) ([]string, error) {
	if err := CheckReferences(res.Document); err != nil {
		return nil, &InvariantError{Err: err}
	}
	data, err := Encode(res.Document)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, &InvariantError{Err: err, Schema: true}
	}

	var written []string
	if len(res.Images) > 0 {
		imgDir := filepath.Join(dir, constants.ImagesDirName)
		if err := os.MkdirAll(imgDir, 0o755); err != nil {
			return nil, err
		}
		for _, img := range res.Images {
			rel := filepath.Join(constants.ImagesDirName, img.Name)
			if err := os.WriteFile(filepath.Join(dir, rel), img.Data, 0o644); err != nil {
				return nil, err
			}
			written = append(written, rel)
		}
	}
	if res.Markdown != nil {
		rel := stem + constants.MarkdownExtension
		if err := os.WriteFile(filepath.Join(dir, rel), res.Markdown, 0o644); err != nil {
			return nil, err
		}
		written = append(written, rel)
	}
	rel := stem + constants.JSONExtension
	if err := os.WriteFile(filepath.Join(dir, rel), data, 0o644); err != nil {
		return nil, err
	}
	written = append(written, rel)
	return written, nil
}

// InvariantError reports a document that failed its own consistency checks.
type InvariantError struct {
	Err    error
	Schema bool
}

func (e *InvariantError) Error() string {
	if e.Schema {
		return "output schema: " + e.Err.Error()
	}
	return "cross references: " + e.Err.Error()
}

func (e *InvariantError) Unwrap() error { return e.Err }
