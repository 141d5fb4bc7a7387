package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/pdfplucker/internal/metrics"
)

// Init applies global output settings.
func Init(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

// PrintSummary writes the batch summary in the order the run log uses.
func PrintSummary(w io.Writer, m metrics.RunMetrics, logPath string) {
	headColor.Fprintln(w, "Processing summary")
	fmt.Fprintf(w, "Total documents: %d\n", m.TotalDocs)
	okColor.Fprintf(w, "Processed: %d\n", m.ProcessedDocs)
	if m.FailedDocs > 0 {
		failColor.Fprintf(w, "Failed: %d\n", m.FailedDocs)
	} else {
		fmt.Fprintf(w, "Failed: %d\n", m.FailedDocs)
	}
	if m.TimeoutDocs > 0 {
		warnColor.Fprintf(w, "Timed out: %d\n", m.TimeoutDocs)
	} else {
		fmt.Fprintf(w, "Timed out: %d\n", m.TimeoutDocs)
	}
	fmt.Fprintf(w, "Success rate: %.2f%%\n", m.SuccessRate)
	fmt.Fprintf(w, "Total time elapsed: %.2f seconds\n", m.ElapsedTime)

	for _, f := range m.Fails {
		failColor.Fprintf(w, "  ✗ %s: %s", f.File, f.Error)
		if f.Message != "" {
			fmt.Fprintf(w, " (%s)", f.Message)
		}
		fmt.Fprintln(w)
	}
	if logPath != "" {
		fmt.Fprintf(w, "Run log: %s\n", logPath)
	}
}

// PrintSingle reports the outcome of a single-document run.
func PrintSingle(w io.Writer, source string, ok bool, elapsedSeconds float64) {
	if ok {
		okColor.Fprintf(w, "✓ %s processed successfully in %.2f seconds\n", source, elapsedSeconds)
		return
	}
	failColor.Fprintf(w, "✗ failed to process %s\n", source)
}
