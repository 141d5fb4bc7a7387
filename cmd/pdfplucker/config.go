package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// flagValues holds the raw CLI flags; only flags the user actually set
// override the loaded configuration.
type flagValues struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	noColor    bool

	source           string
	output           string
	folderSeparation bool
	images           string
	timeoutSeconds   int
	workers          int
	forceOCR         bool
	device           string
	markdown         bool
	amount           int
	converter        string
	ledger           string
	report           string
	progress         bool
}

func (f *flagValues) bindPersistent(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading PLUCKER_* variables")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format (json, text)")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fs.StringVar(&f.converter, "converter", "", "converter backend (fitz, command)")
	fs.StringVar(&f.ledger, "ledger", "", "run ledger DSN (SQLite path or postgres:// URL)")
}

func (f *flagValues) bindRun(fs *pflag.FlagSet) {
	fs.StringVarP(&f.source, "source", "s", "", "PDF file or directory to convert")
	fs.StringVarP(&f.output, "output", "o", "./results", "output directory")
	fs.BoolVarP(&f.folderSeparation, "folder-separation", "f", false, "write each document into its own folder")
	fs.StringVarP(&f.images, "images", "i", "", "images directory (flat layout only)")
	fs.IntVarP(&f.timeoutSeconds, "timeout", "t", 600, "per-document timeout in seconds")
	fs.IntVarP(&f.workers, "workers", "w", 4, "number of parallel workers")
	fs.BoolVar(&f.forceOCR, "force-ocr", false, "force OCR on every page")
	fs.StringVarP(&f.device, "device", "d", "AUTO", "device hint (CPU, CUDA, AUTO)")
	fs.BoolVarP(&f.markdown, "markdown", "m", false, "also write Markdown")
	fs.IntVarP(&f.amount, "amount", "a", 0, "convert at most this many documents (0 = all)")
	fs.StringVar(&f.report, "report", "", "write an XLSX run report to this path")
	fs.BoolVar(&f.progress, "progress", true, "show a progress bar")
}

// load builds the configuration: defaults, YAML file, dotenv, environment,
// then explicitly set flags.
func (f *flagValues) load(cmd *cobra.Command) (*common.Config, error) {
	if err := common.LoadDotEnv(f.envFile); err != nil {
		return nil, err
	}
	cfg, err := common.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("converter") {
		cfg.Converter.Backend = f.converter
	}
	if changed("ledger") {
		cfg.Ledger.DSN = f.ledger
	}
	if changed("source") {
		cfg.Run.Source = f.source
	}
	if changed("output") {
		cfg.Run.Output = f.output
	}
	if changed("folder-separation") {
		cfg.Run.FolderSeparation = f.folderSeparation
	}
	if changed("images") {
		cfg.Run.Images = f.images
	}
	if changed("timeout") {
		cfg.Run.Timeout = time.Duration(f.timeoutSeconds) * time.Second
	}
	if changed("workers") {
		cfg.Run.Workers = f.workers
	}
	if changed("force-ocr") {
		cfg.Run.ForceOCR = f.forceOCR
	}
	if changed("device") {
		cfg.Run.Device = f.device
	}
	if changed("markdown") {
		cfg.Run.Markdown = f.markdown
	}
	if changed("amount") {
		cfg.Run.Amount = f.amount
	}
	if changed("report") {
		cfg.Report.XLSXPath = f.report
	}
	return cfg, nil
}

// workerArgs are the arguments a worker process needs to rebuild the same
// converter as the supervisor.
func (f *flagValues) workerArgs(cfg *common.Config) []string {
	args := []string{"worker", "--converter", cfg.Converter.Backend, "--log-level", cfg.Log.Level, "--log-format", cfg.Log.Format, "--env-file", f.envFile}
	if f.configPath != "" {
		args = append(args, "--config", f.configPath)
	}
	return args
}
