package pool

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfplucker/constants"
)

// Job is one source PDF to convert. Jobs are created by the dispatcher and
// never modified afterwards.
type Job struct {
	ID         uuid.UUID
	SourcePath string
	Device     constants.Device
	// Index is the position in dispatch order.
	Index int
}

// Outcome is the terminal result of one job, produced exactly once.
type Outcome struct {
	JobID         uuid.UUID
	SourcePath    string
	Status        constants.JobStatus
	ErrorKind     string
	ErrorMessage  string
	ArtifactPaths []string
	Duration      time.Duration
}

// Succeeded reports whether the outcome is a success.
func (o Outcome) Succeeded() bool { return o.Status == constants.JobStatusSuccess }
