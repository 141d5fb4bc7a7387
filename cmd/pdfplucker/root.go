package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
	"github.com/joseph-ayodele/pdfplucker/internal/ledger"
	"github.com/joseph-ayodele/pdfplucker/internal/plucker"
	"github.com/joseph-ayodele/pdfplucker/internal/ui"
	"github.com/joseph-ayodele/pdfplucker/internal/worker"
)

func newRootCmd() *cobra.Command {
	flags := &flagValues{}
	cmd := &cobra.Command{
		Use:   "pdfplucker",
		Short: "Batch-convert PDFs into cross-referenced JSON and Markdown",
		Long: `pdfplucker converts a PDF file, or every PDF under a directory, into a stable
JSON document (metadata, pages, tables, images) and optionally Markdown.
Each document is converted in its own worker process with a time limit, so
one slow or broken file cannot stall the batch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, flags)
		},
	}
	flags.bindPersistent(cmd.PersistentFlags())
	flags.bindRun(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("folder-separation", "images")

	cmd.AddCommand(newWorkerCmd(flags), newHistoryCmd(flags))
	return cmd
}

func runConvert(cmd *cobra.Command, flags *flagValues) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ui.Init(flags.noColor)
	logger := common.NewLogger(cfg.Log)
	ctx := cmd.Context()

	_, detector, err := converter.New(cfg.Converter, logger)
	if err != nil {
		return err
	}
	led, err := ledger.Open(ctx, cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer led.Close()

	exec := &worker.ProcessExecutor{
		Args:     flags.workerArgs(cfg),
		ForceOCR: cfg.Run.ForceOCR,
		Markdown: cfg.Run.Markdown,
		Logger:   logger,
	}
	opts := []plucker.Option{plucker.WithLedger(led), plucker.WithDetector(detector)}
	if flags.progress {
		opts = append(opts, plucker.WithObserver(ui.NewProgress(os.Stderr)))
	}

	start := time.Now()
	res, err := plucker.NewService(cfg, exec, logger, opts...).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Single {
		ui.PrintSingle(out, cfg.Run.Source, res.Success, time.Since(start).Seconds())
		if !res.Success {
			return exitCode(1)
		}
		return nil
	}
	ui.PrintSummary(out, res.Metrics, res.LogPath)
	if res.ReportPath != "" {
		fmt.Fprintf(out, "Report: %s\n", res.ReportPath)
	}
	return nil
}
