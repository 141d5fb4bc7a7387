package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/pdfplucker/constants"
)

// Converter backends.
const (
	BackendFitz    = "fitz"
	BackendCommand = "command"
)

// Config holds all application configuration
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Converter ConverterConfig `yaml:"converter"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Report    ReportConfig    `yaml:"report"`
	Log       LogConfig       `yaml:"log"`
}

// RunConfig holds the per-invocation conversion settings.
type RunConfig struct {
	Source           string        `yaml:"source" env:"PLUCKER_SOURCE"`
	Output           string        `yaml:"output" env:"PLUCKER_OUTPUT"`
	FolderSeparation bool          `yaml:"folder_separation" env:"PLUCKER_FOLDER_SEPARATION"`
	Images           string        `yaml:"images" env:"PLUCKER_IMAGES"`
	Timeout          time.Duration `yaml:"timeout" env:"PLUCKER_TIMEOUT"`
	Workers          int           `yaml:"workers" env:"PLUCKER_WORKERS"`
	ForceOCR         bool          `yaml:"force_ocr" env:"PLUCKER_FORCE_OCR"`
	Device           string        `yaml:"device" env:"PLUCKER_DEVICE"`
	Markdown         bool          `yaml:"markdown" env:"PLUCKER_MARKDOWN"`
	Amount           int           `yaml:"amount" env:"PLUCKER_AMOUNT"`
}

// ConverterConfig selects and configures the conversion backend.
type ConverterConfig struct {
	Backend       string   `yaml:"backend" env:"PLUCKER_CONVERTER"`
	Command       string   `yaml:"command" env:"PLUCKER_CONVERTER_COMMAND"`
	Args          []string `yaml:"args" env:"PLUCKER_CONVERTER_ARGS"`
	DetectCommand string   `yaml:"detect_command" env:"PLUCKER_DETECT_COMMAND"`
	DetectArgs    []string `yaml:"detect_args" env:"PLUCKER_DETECT_ARGS"`
	// FitzMetadata fills document properties the backend left empty from MuPDF.
	FitzMetadata bool `yaml:"fitz_metadata" env:"PLUCKER_FITZ_METADATA"`
	// Tesseract enables OCR in the fitz backend when set.
	Tesseract     string  `yaml:"tesseract" env:"PLUCKER_TESSERACT"`
	TesseractLang string  `yaml:"tesseract_lang" env:"PLUCKER_TESSERACT_LANG"`
	TessdataDir   string  `yaml:"tessdata_dir" env:"PLUCKER_TESSDATA_DIR"`
	OCRDPI        float64 `yaml:"ocr_dpi" env:"PLUCKER_OCR_DPI"`
}

// LedgerConfig holds run-history database configuration. An empty DSN
// disables the ledger.
type LedgerConfig struct {
	DSN             string        `yaml:"dsn" env:"PLUCKER_LEDGER_DSN"`
	MaxConns        int32         `yaml:"max_conns" env:"PLUCKER_LEDGER_MAX_CONNS"`
	MinConns        int32         `yaml:"min_conns" env:"PLUCKER_LEDGER_MIN_CONNS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"PLUCKER_LEDGER_MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"PLUCKER_LEDGER_MAX_CONN_IDLE_TIME"`
	DialTimeout     time.Duration `yaml:"dial_timeout" env:"PLUCKER_LEDGER_DIAL_TIMEOUT"`
}

// ReportConfig controls the run-level artifacts written next to the outputs.
type ReportConfig struct {
	WriteLog bool   `yaml:"write_log" env:"PLUCKER_WRITE_LOG"`
	XLSXPath string `yaml:"xlsx" env:"PLUCKER_REPORT_XLSX"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" env:"PLUCKER_LOG_LEVEL"`
	Format string `yaml:"format" env:"PLUCKER_LOG_FORMAT"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Output:  "./results",
			Timeout: 600 * time.Second,
			Workers: 4,
			Device:  string(constants.DeviceAuto),
		},
		Converter: ConverterConfig{
			Backend:       BackendFitz,
			Command:       "pdfplucker-docling",
			DetectCommand: "nvidia-smi",
			DetectArgs:    []string{"-L"},
			FitzMetadata:  true,
			TesseractLang: "eng",
			OCRDPI:        300,
		},
		Ledger: LedgerConfig{
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Report: ReportConfig{
			WriteLog: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and PLUCKER_* environment variables, in that order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ConfigError(fmt.Sprintf("read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, ConfigError(fmt.Sprintf("parse config file %s", path), err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, ConfigError("parse environment", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are not an error; existing variables are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ConfigError(fmt.Sprintf("load %s", f), err)
		}
	}
	return nil
}

// Validate checks the run configuration before any work starts.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("source", c.Run.Source, Required)
	v.Field("output", c.Run.Output, Required)
	v.Field("workers", c.Run.Workers, Min(1))
	v.Field("timeout", c.Run.Timeout, MinDuration(time.Second))
	v.Field("amount", c.Run.Amount, Min(0))
	v.Field("device", c.Run.Device, validDevice)
	v.Field("converter.backend", c.Converter.Backend, OneOf(BackendFitz, BackendCommand))
	if c.Converter.Backend == BackendCommand {
		v.Field("converter.command", c.Converter.Command, Required)
	}
	if c.Run.FolderSeparation && strings.TrimSpace(c.Run.Images) != "" {
		v.Field("images", c.Run.Images, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: "cannot be combined with folder separation"}
		})
	}
	if v.HasErrors() {
		return ConfigError(v.ErrorMessage(), ErrValidation)
	}
	return nil
}

// Device returns the parsed device hint. Validate must have passed.
func (c *Config) Device() constants.Device {
	d, _ := constants.ParseDevice(c.Run.Device)
	return d
}

func validDevice(fieldName string, value interface{}) *ValidationError {
	str, _ := value.(string)
	if _, ok := constants.ParseDevice(str); !ok {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s", strings.Join(constants.DevicesAsStringSlice(), ", ")),
		}
	}
	return nil
}
