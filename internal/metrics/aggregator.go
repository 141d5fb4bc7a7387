package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/pdfplucker/constants"
	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

// RunMetrics summarizes a batch run.
type RunMetrics struct {
	// InitialTime is the run start as Unix seconds.
	InitialTime float64 `json:"initial_time"`
	// ElapsedTime is the run duration in seconds.
	ElapsedTime   float64 `json:"elapsed_time"`
	TotalDocs     int     `json:"total_docs"`
	ProcessedDocs int     `json:"processed_docs"`
	FailedDocs    int     `json:"failed_docs"`
	TimeoutDocs   int     `json:"timeout_docs"`
	SuccessRate   float64 `json:"success_rate"`
	Fails         []Fail  `json:"fails"`
}

// Fail describes one failed or timed-out job.
type Fail struct {
	File string `json:"file"`
	// Error is the taxonomy class, e.g. ConversionError or TimeoutError.
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Aggregator folds outcomes into RunMetrics. Record is commutative, so the
// result does not depend on completion order.
type Aggregator struct {
	mu       sync.Mutex
	start    time.Time
	m        RunMetrics
	outcomes []pool.Outcome
}

func NewAggregator(total int, start time.Time) *Aggregator {
	return &Aggregator{
		start: start,
		m: RunMetrics{
			InitialTime: float64(start.UnixNano()) / float64(time.Second),
			TotalDocs:   total,
			Fails:       []Fail{},
		},
	}
}

// Record accounts for one terminal outcome.
func (a *Aggregator) Record(o pool.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.outcomes = append(a.outcomes, o)
	switch o.Status {
	case constants.JobStatusSuccess:
		a.m.ProcessedDocs++
		return
	case constants.JobStatusTimeout:
		a.m.TimeoutDocs++
	default:
		a.m.FailedDocs++
	}
	kind := o.ErrorKind
	if kind == "" {
		if o.Status == constants.JobStatusTimeout {
			kind = common.KindTimeout
		} else {
			kind = common.KindConversion
		}
	}
	a.m.Fails = append(a.m.Fails, Fail{
		File:    o.SourcePath,
		Error:   common.ClassOf(kind),
		Kind:    kind,
		Message: o.ErrorMessage,
	})
}

// Outcomes returns the recorded outcomes sorted by source path.
func (a *Aggregator) Outcomes() []pool.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]pool.Outcome(nil), a.outcomes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out
}

// Finalize stamps the elapsed time and success rate and returns a copy.
func (a *Aggregator) Finalize(end time.Time) RunMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := a.m
	m.Fails = append([]Fail{}, a.m.Fails...)
	sort.SliceStable(m.Fails, func(i, j int) bool { return m.Fails[i].File < m.Fails[j].File })
	m.ElapsedTime = end.Sub(a.start).Seconds()
	m.SuccessRate = SuccessRate(m.ProcessedDocs, m.TotalDocs)
	return m
}

// SuccessRate is processed/total as a percentage rounded to two decimals,
// or 0 when total is 0.
func SuccessRate(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*10000) / 100
}

// Consistent reports whether the counters add up to the total.
func (m RunMetrics) Consistent() bool {
	return m.ProcessedDocs+m.FailedDocs+m.TimeoutDocs == m.TotalDocs
}

// LogPath is where WriteLog puts the metrics of a run over sourceName.
func LogPath(dir, sourceName string) string {
	return filepath.Join(dir, sourceName+"_log.json")
}

// WriteLog writes m as indented JSON to <dir>/<sourceName>_log.json.
func WriteLog(dir, sourceName string, m RunMetrics) (string, error) {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	path := LogPath(dir, sourceName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", common.IOError(fmt.Sprintf("write run log %s", path), err)
	}
	return path, nil
}
