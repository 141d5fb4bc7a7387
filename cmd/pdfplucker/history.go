package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/ledger"
)

func newHistoryCmd(flags *flagValues) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs, or the outcomes of one run, from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Ledger.DSN == "" {
				return common.ConfigError("history needs a ledger; set --ledger or PLUCKER_LEDGER_DSN", common.ErrInvalidInput)
			}
			logger := common.NewLogger(cfg.Log)
			led, err := ledger.Open(cmd.Context(), cfg.Ledger, logger)
			if err != nil {
				return err
			}
			defer led.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if runID != "" {
				outcomes, err := led.ListOutcomes(cmd.Context(), runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "FILE\tSTATUS\tCLASS\tKIND\tDURATION\tARTIFACTS")
				for _, o := range outcomes {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
						o.SourcePath, o.Status, o.ErrorClass, o.ErrorKind, o.Duration.Round(time.Millisecond), len(o.Artifacts))
				}
				return nil
			}

			runs, err := led.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tDEVICE\tTOTAL\tOK\tFAILED\tTIMEOUT\tSUCCESS\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.2f%%\t%s\n",
					r.ID, r.StartedAt.Format(time.DateTime), r.Status, r.Device,
					r.TotalDocs, r.ProcessedDocs, r.FailedDocs, r.TimeoutDocs, r.SuccessRate, r.Source)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show the outcomes of this run")
	return cmd
}
