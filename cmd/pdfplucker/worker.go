package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
	"github.com/joseph-ayodele/pdfplucker/internal/converter"
	"github.com/joseph-ayodele/pdfplucker/internal/worker"
)

func newWorkerCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Convert one document described by a JSON request on stdin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			// stdout carries the response; logs go to stderr only.
			logger := common.NewLogger(cfg.Log)
			port, _, err := converter.New(cfg.Converter, logger)
			if err != nil {
				return err
			}
			return worker.Serve(cmd.Context(), os.Stdin, os.Stdout, port, logger)
		},
	}
}
