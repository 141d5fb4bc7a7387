// Package ui renders run progress and the final summary on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/pdfplucker/internal/pool"
)

// Progress shows a bar for batch runs and a spinner for single documents.
// It satisfies the run observer interface.
type Progress struct {
	w       io.Writer
	bar     *progressbar.ProgressBar
	spinner *spinner.Spinner
	done    int
}

// NewProgress draws on w; nil means stderr.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = os.Stderr
	}
	return &Progress{w: w}
}

func (p *Progress) RunStarted(total int, single bool) {
	if single {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " converting"
		s.Writer = p.w
		s.Start()
		p.spinner = s
		return
	}
	p.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *Progress) JobFinished(o pool.Outcome) {
	p.done++
	if p.bar != nil {
		p.bar.Describe(filepath.Base(o.SourcePath))
		_ = p.bar.Add(1)
	}
	if p.spinner != nil {
		p.spinner.Suffix = " " + string(o.Status)
	}
}

func (p *Progress) RunFinished() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

// Done is the number of outcomes seen so far.
func (p *Progress) Done() int { return p.done }
