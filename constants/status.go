package constants

// JobStatus is the terminal classification of a conversion job.
type JobStatus string

// Stable values (stored as-is in the run ledger and metrics).
const (
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
	JobStatusTimeout JobStatus = "timeout"
)

// Terminal reports whether s is one of the final outcome states.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailed, JobStatusTimeout:
		return true
	}
	return false
}

// RunStatus is the lifecycle state of a whole run in the ledger.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusFinished RunStatus = "finished"
	RunStatusAborted  RunStatus = "aborted"
)
