package stagerunner

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"stock_analysis/internal/feature/analysis/domain/entity"
)

// StageSpec describes how to launch one external stage program.
// The instrument key is always appended as the final positional argument.
type StageSpec struct {
	Program string        `yaml:"program" validate:"required"`
	Args    []string      `yaml:"args"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	Env     []string      `yaml:"env"`
}

// Config is the stage table keyed by stage name.
type Config struct {
	Stages map[string]StageSpec `yaml:"stages" validate:"required,dive"`
}

// envConfig holds the STAGE_* environment variables.
type envConfig struct {
	ConfigFile       string        `envconfig:"CONFIG_FILE"`
	WorkDir          string        `envconfig:"WORK_DIR"`
	SeriesProgram    string        `envconfig:"SERIES_PROGRAM"`
	SeriesArgs       []string      `envconfig:"SERIES_ARGS"`
	SeriesTimeout    time.Duration `envconfig:"SERIES_TIMEOUT"`
	IndicatorProgram string        `envconfig:"INDICATOR_PROGRAM"`
	IndicatorArgs    []string      `envconfig:"INDICATOR_ARGS"`
	IndicatorTimeout time.Duration `envconfig:"INDICATOR_TIMEOUT"`
}

var validate = validator.New()

// LoadConfig builds the stage table from an optional YAML file (STAGE_CONFIG_FILE)
// overlaid with STAGE_* environment variables, then validates it.
func LoadConfig() (Config, error) {
	var env envConfig
	if err := envconfig.Process("STAGE", &env); err != nil {
		return Config{}, fmt.Errorf("stage config from env: %w", err)
	}

	cfg := Config{Stages: map[string]StageSpec{}}
	if env.ConfigFile != "" {
		fileCfg, err := LoadFile(env.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	cfg.overlay(entity.StageSeriesIngestion, env.SeriesProgram, env.SeriesArgs, env.SeriesTimeout, env.WorkDir)
	cfg.overlay(entity.StageIndicatorDerivation, env.IndicatorProgram, env.IndicatorArgs, env.IndicatorTimeout, env.WorkDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML stage table.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read stage config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse stage config %s: %w", path, err)
	}
	if cfg.Stages == nil {
		cfg.Stages = map[string]StageSpec{}
	}
	return cfg, nil
}

// overlay applies non-empty environment values on top of a stage entry.
func (c *Config) overlay(name, program string, args []string, timeout time.Duration, dir string) {
	spec, ok := c.Stages[name]
	if !ok && program == "" {
		return
	}
	if program != "" {
		spec.Program = program
	}
	if len(args) > 0 {
		spec.Args = args
	}
	if timeout > 0 {
		spec.Timeout = timeout
	}
	if spec.Dir == "" {
		spec.Dir = dir
	}
	c.Stages[name] = spec
}

// Validate checks field constraints and that both pipeline stages are configured.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid stage config: %w", err)
	}
	for _, name := range []string{entity.StageSeriesIngestion, entity.StageIndicatorDerivation} {
		if _, ok := c.Stages[name]; !ok {
			return fmt.Errorf("invalid stage config: stage %q is not configured", name)
		}
	}
	return nil
}
