package worker

import (
	"github.com/joseph-ayodele/pdfplucker/constants"
)

// Request is what the supervisor sends a worker process on stdin.
type Request struct {
	JobID      string `json:"job_id"`
	Source     string `json:"source"`
	Device     string `json:"device"`
	ForceOCR   bool   `json:"force_ocr"`
	StagingDir string `json:"staging_dir"`
	Stem       string `json:"stem"`
	Markdown   bool   `json:"markdown"`
}

// Response is the single JSON line a worker writes on stdout.
type Response struct {
	Status       constants.JobStatus `json:"status"`
	ErrorKind    string              `json:"error_kind,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	// Artifacts are relative to the staging directory.
	Artifacts []string `json:"artifacts,omitempty"`
}

func failed(kind, message string) Response {
	return Response{Status: constants.JobStatusFailed, ErrorKind: kind, ErrorMessage: message}
}
