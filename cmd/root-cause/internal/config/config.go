// Package config loads the pipeline configuration: engine binary names, the
// trace hook script location, and trace stage tuning. Values come from a
// YAML file with sane defaults; command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/engine"
)

// Error policy values for the trace stage.
const (
	// PolicyContinue records a failing trace and keeps tracing siblings.
	PolicyContinue = "continue"
	// PolicyAbort cancels the remaining batch on the first failure.
	PolicyAbort = "abort"
)

// ErrInvalidConfig is returned when the loaded configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Engine EngineConfig `yaml:"engine" validate:"required"`

	// Hook is the trace-hook script passed to every trace invocation.
	Hook string `yaml:"hook" validate:"required"`

	Trace TraceConfig `yaml:"trace"`
}

// EngineConfig names the external engine binaries. The exploration binary is
// explicit: there is no runtime probing for alternate names.
type EngineConfig struct {
	Fuzzer       string `yaml:"fuzzer" validate:"required"`
	CrashArchive string `yaml:"crash_archive" validate:"required"`
	Exploration  string `yaml:"exploration" validate:"required"`
}

// Binaries converts to the engine's binary set.
func (e EngineConfig) Binaries() engine.Binaries {
	return engine.Binaries{
		Fuzzer:       e.Fuzzer,
		CrashArchive: e.CrashArchive,
		Exploration:  e.Exploration,
	}
}

type TraceConfig struct {
	// Workers bounds the trace worker pool. 0 means cpu count minus one.
	Workers int `yaml:"workers" validate:"gte=0"`

	// ErrorPolicy decides whether one failing trace aborts the batch.
	ErrorPolicy string `yaml:"error_policy" validate:"oneof=continue abort"`
}

// Default returns the built-in configuration.
//
// The hook path is resolved once relative to the installed binary, mirroring
// the engine distribution layout (binary in bin/, hooks in emulator/hooks/).
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Fuzzer:       "hoedur-arm",
			CrashArchive: "hoedur-crash-archive",
			Exploration:  "hoedur-exploration-arm",
		},
		Hook: defaultHookPath(),
		Trace: TraceConfig{
			Workers:     0,
			ErrorPolicy: PolicyContinue,
		},
	}
}

func defaultHookPath() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("emulator", "hooks", "memcpy.rn")
	}
	return filepath.Join(filepath.Dir(exe), "..", "emulator", "hooks", "memcpy.rn")
}

// Load reads the configuration file at path, merged over defaults, and
// validates it. An empty path loads pure defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
