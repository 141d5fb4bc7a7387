package metrics

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

const (
	summarySheet = "Summary"
	jobsSheet    = "Jobs"
)

// ExportXLSX renders the run as a workbook with a Summary sheet of counters
// and a Jobs sheet with one row per outcome.
func ExportXLSX(m RunMetrics, outcomes []pool.Outcome, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, err
	}
	if index, _ := f.GetSheetIndex(jobsSheet); index == -1 {
		if _, err := f.NewSheet(jobsSheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(activeIndex)

	summary := [][2]any{
		{"Started", time.Unix(0, int64(m.InitialTime*float64(time.Second))).UTC().Format(time.RFC3339)},
		{"Elapsed (s)", m.ElapsedTime},
		{"Total documents", m.TotalDocs},
		{"Processed", m.ProcessedDocs},
		{"Failed", m.FailedDocs},
		{"Timed out", m.TimeoutDocs},
		{"Success rate (%)", m.SuccessRate},
	}
	for i, kv := range summary {
		row := i + 1
		_ = f.SetCellValue(summarySheet, cellName(1, row), kv[0])
		_ = f.SetCellValue(summarySheet, cellName(2, row), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 24)

	headers := []string{"File", "Status", "Error Class", "Error Kind", "Message", "Duration (s)", "Artifacts"}
	for i, h := range headers {
		_ = f.SetCellValue(jobsSheet, cellName(i+1, 1), h)
	}

	row := 2
	for _, o := range outcomes {
		write := func(col int, v any) {
			_ = f.SetCellValue(jobsSheet, cellName(col, row), v)
		}
		class := ""
		if !o.Succeeded() {
			class = common.ClassOf(o.ErrorKind)
		}
		write(1, o.SourcePath)
		write(2, string(o.Status))
		write(3, class)
		write(4, o.ErrorKind)
		write(5, truncate(o.ErrorMessage, 240))
		write(6, o.Duration.Seconds())
		write(7, strings.Join(o.ArtifactPaths, "\n"))
		row++
	}

	_ = f.SetColWidth(jobsSheet, "A", "A", 60) // file
	_ = f.SetColWidth(jobsSheet, "B", "D", 16)
	_ = f.SetColWidth(jobsSheet, "E", "E", 48) // message
	_ = f.SetColWidth(jobsSheet, "F", "F", 12)
	_ = f.SetColWidth(jobsSheet, "G", "G", 60) // artifacts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(outcomes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
