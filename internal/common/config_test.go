package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/constants"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "./results", cfg.Run.Output)
	assert.Equal(t, 600*time.Second, cfg.Run.Timeout)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, constants.DeviceAuto, cfg.Device())
	assert.Equal(t, BackendFitz, cfg.Converter.Backend)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdfplucker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
run:
  output: /from/yaml
  workers: 8
  timeout: 90s
  device: cuda
converter:
  backend: command
  command: docling-native
log:
  level: debug
`), 0o644))

	t.Setenv("PLUCKER_WORKERS", "2")
	t.Setenv("PLUCKER_CONVERTER_ARGS", "--fast,--lang=en")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/yaml", cfg.Run.Output)
	assert.Equal(t, 2, cfg.Run.Workers, "environment beats the file")
	assert.Equal(t, 90*time.Second, cfg.Run.Timeout)
	assert.Equal(t, constants.DeviceCUDA, cfg.Device())
	assert.Equal(t, "docling-native", cfg.Converter.Command)
	assert.Equal(t, []string{"--fast", "--lang=en"}, cfg.Converter.Args)
	assert.Equal(t, "nvidia-smi", cfg.Converter.DetectCommand, "defaults survive")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, IsCode(err, CodeConfig))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("run: [unclosed"), 0o644))
	_, err = LoadConfig(bad)
	assert.True(t, IsCode(err, CodeConfig))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("PLUCKER_AMOUNT=3\n"), 0o644))
	t.Setenv("PLUCKER_AMOUNT", "")
	require.NoError(t, os.Unsetenv("PLUCKER_AMOUNT"))

	require.NoError(t, LoadDotEnv(file, filepath.Join(dir, "absent.env")))
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Run.Amount)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Run.Source = "/in"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"missing source":     func(c *Config) { c.Run.Source = "" },
		"zero workers":       func(c *Config) { c.Run.Workers = 0 },
		"sub-second timeout": func(c *Config) { c.Run.Timeout = 10 * time.Millisecond },
		"negative amount":    func(c *Config) { c.Run.Amount = -1 },
		"unknown device":     func(c *Config) { c.Run.Device = "tpu" },
		"unknown backend":    func(c *Config) { c.Converter.Backend = "magic" },
		"command without binary": func(c *Config) {
			c.Converter.Backend = BackendCommand
			c.Converter.Command = ""
		},
		"folders plus images dir": func(c *Config) {
			c.Run.FolderSeparation = true
			c.Run.Images = "/imgs"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsCode(err, CodeConfig))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	for _, d := range []string{"", "gpu", "Cpu", "AUTO"} {
		cfg := valid()
		cfg.Run.Device = d
		assert.NoError(t, cfg.Validate(), "device %q", d)
	}
}
