package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/san-kum/bucksim/internal/dynamo"
	"github.com/san-kum/bucksim/internal/physics"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: BUCKSIM_SWITCHING__DUTY=0.5 sets switching.duty.
const EnvPrefix = "BUCKSIM_"

const (
	DefaultModel      = "buck"
	DefaultIntegrator = "euler"
	DefaultDataDir    = ".bucksim"
	DefaultLogLevel   = "info"
	DefaultTheme      = "scope"
)

type Config struct {
	Model      string          `koanf:"model" yaml:"model"`
	Integrator string          `koanf:"integrator" yaml:"integrator"`
	Circuit    CircuitConfig   `koanf:"circuit" yaml:"circuit"`
	Switching  SwitchingConfig `koanf:"switching" yaml:"switching"`
	Run        RunConfig       `koanf:"run" yaml:"run"`
	Output     OutputConfig    `koanf:"output" yaml:"output"`
}

type CircuitConfig struct {
	Vin         float64 `koanf:"vin" yaml:"vin"`
	Inductance  float64 `koanf:"inductance" yaml:"inductance"`
	Resistance  float64 `koanf:"resistance" yaml:"resistance"`
	Capacitance float64 `koanf:"capacitance" yaml:"capacitance"`
}

type SwitchingConfig struct {
	Frequency float64 `koanf:"frequency" yaml:"frequency"`
	Duty      float64 `koanf:"duty" yaml:"duty"`
}

type RunConfig struct {
	Duration float64 `koanf:"duration" yaml:"duration"`
	// Dt wins over StepsPerPeriod when non-zero.
	Dt             float64 `koanf:"dt" yaml:"dt"`
	StepsPerPeriod int     `koanf:"steps_per_period" yaml:"steps_per_period"`
	ValidateState  bool    `koanf:"validate_state" yaml:"validate_state"`
}

type OutputConfig struct {
	DataDir  string `koanf:"data_dir" yaml:"data_dir"`
	LogLevel string `koanf:"log_level" yaml:"log_level"`
	Theme    string `koanf:"theme" yaml:"theme"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Circuit: CircuitConfig{
			Vin:         physics.DefaultVin,
			Inductance:  physics.DefaultInductance,
			Resistance:  physics.DefaultResistance,
			Capacitance: physics.DefaultCapacitance,
		},
		Switching: SwitchingConfig{
			Frequency: physics.DefaultFrequency,
			Duty:      physics.DefaultDuty,
		},
		Run: RunConfig{
			Duration:       physics.DefaultDuration,
			StepsPerPeriod: physics.DefaultStepsPerTs,
		},
		Output: OutputConfig{
			DataDir:  DefaultDataDir,
			LogLevel: DefaultLogLevel,
			Theme:    DefaultTheme,
		},
	}
}

// Load layers struct defaults, then the file at path (yaml or json by
// extension), then BUCKSIM_ environment variables. An empty path or a
// missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	return LoadFrom(DefaultConfig(), path)
}

// LoadFrom is Load with base in place of the defaults, so a preset can sit
// under the file and the environment.
func LoadFrom(base *Config, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(base, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("%w: unsupported config extension %q", dynamo.ErrInvalidConfig, ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("%w: parse %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return nil
}

func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", "."), value
}

func Save(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the configuration into a run's parameter set. It does not
// validate; call Validate on the result.
func (c *Config) Params() physics.BuckParams {
	p := physics.BuckParams{
		Vin:  c.Circuit.Vin,
		L:    c.Circuit.Inductance,
		R:    c.Circuit.Resistance,
		C:    c.Circuit.Capacitance,
		Fs:   c.Switching.Frequency,
		D:    c.Switching.Duty,
		TEnd: c.Run.Duration,
		Dt:   c.Run.Dt,
	}
	if p.Dt == 0 {
		steps := c.Run.StepsPerPeriod
		if steps <= 0 {
			steps = physics.DefaultStepsPerTs
		}
		p = p.WithStepsPerPeriod(steps)
	}
	return p
}
